package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/relkey"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

func TestUsers_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.Users().Create(ctx, &user.User{ID: "u1", PhoneNumber: "+331", Username: "+331", CreatedAt: now}))

	_, err := s.Users().Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().UpdateUsername(ctx, "u1", "neo", now))
	require.NoError(t, s.Users().AddDeviceToken(ctx, "u1", "tok", now))
	require.NoError(t, s.Users().AddDeviceToken(ctx, "u1", "tok", now))

	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "neo", u.Username)
	assert.Equal(t, []string{"tok"}, u.DeviceTokens)

	assert.ErrorIs(t, s.Users().UpdateUsername(ctx, "ghost", "x", now), store.ErrNotFound)

	found, err := s.Users().FindByPhoneNumbers(ctx, []string{"+331", "+339"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u1", found[0].ID)

	require.NoError(t, s.Users().Delete(ctx, "u1"))
	_, err = s.Users().Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFriendships_CascadeByMember(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 23; i++ {
		other := fmt.Sprintf("f%02d", i)
		require.NoError(t, s.Friendships().Create(ctx, &friendship.Friendship{
			ID:      relkey.Pair("me", other),
			UserIDs: [2]string{"me", other},
		}))
	}
	require.NoError(t, s.Friendships().Create(ctx, &friendship.Friendship{
		ID:      relkey.Pair("x", "y"),
		UserIDs: [2]string{"x", "y"},
	}))

	res, err := cascade.Delete(ctx, s.Friendships().ByMember("me"), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, 23, res.Deleted)

	left, err := s.Friendships().ListByMember(ctx, "me")
	require.NoError(t, err)
	assert.Empty(t, left)

	_, friendships, _, _ := s.Counts()
	assert.Equal(t, 1, friendships)
}

func TestInvitations_Accept(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Invitations().Create(ctx, &invitation.Invitation{
		ID: relkey.Directed("a", "b"), From: "a", To: "b",
	}))
	require.NoError(t, s.Invitations().Create(ctx, &invitation.Invitation{
		ID: relkey.Directed("b", "a"), From: "b", To: "a",
	}))

	f := &friendship.Friendship{ID: relkey.Pair("a", "b"), UserIDs: [2]string{"a", "b"}}
	require.NoError(t, s.Invitations().Accept(ctx, "a", "b", f))
	assert.ErrorIs(t, s.Invitations().Accept(ctx, "a", "b", f), store.ErrNotFound)

	fromA, err := s.Invitations().ListFrom(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, fromA)

	toA, err := s.Invitations().ListTo(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, toA, 1)

	friends, err := s.Friendships().ListByMember(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestWizzes_ListTo(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.Wizzes().Add(ctx, &wizz.Wizz{From: "a", To: "b", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	got, err := s.Wizzes().ListTo(ctx, "b", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
	assert.NotEqual(t, got[0].ID, got[1].ID)
}
