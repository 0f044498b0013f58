package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/relkey"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(status.Error(codes.NotFound, "no doc")), store.ErrNotFound)

	other := status.Error(codes.Unavailable, "down")
	assert.Equal(t, other, notFound(other))
	assert.NoError(t, notFound(nil))

	plain := errors.New("plain")
	assert.Equal(t, plain, notFound(plain))
}

func TestRefID(t *testing.T) {
	assert.Equal(t, "", refID(nil))
}

// setupEmulator connects to the emulator named by FIRESTORE_EMULATOR_HOST.
func setupEmulator(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "wizz-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return New(client)
}

func TestEmulator_FriendshipCascadeAndAccept(t *testing.T) {
	s := setupEmulator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	me := "me" + uuid.NewString()[:8]
	require.NoError(t, s.Users().Create(ctx, &user.User{ID: me, PhoneNumber: "+33100", Username: "+33100", CreatedAt: now}))

	for i := 0; i < 12; i++ {
		other := fmt.Sprintf("friend%02d%s", i, me)
		require.NoError(t, s.Friendships().Create(ctx, &friendship.Friendship{
			ID: relkey.Pair(me, other), UserIDs: [2]string{me, other}, CreatedAt: now,
		}))
	}

	res, err := cascade.Delete(ctx, s.Friendships().ByMember(me), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Batches)

	left, err := s.Friendships().ListByMember(ctx, me)
	require.NoError(t, err)
	assert.Empty(t, left)

	sender := "sender" + me
	require.NoError(t, s.Invitations().Create(ctx, &invitation.Invitation{
		ID: relkey.Directed(sender, me), From: sender, To: me, CreatedAt: now,
	}))
	f := &friendship.Friendship{ID: relkey.Pair(sender, me), UserIDs: [2]string{sender, me}, CreatedAt: now}
	require.NoError(t, s.Invitations().Accept(ctx, sender, me, f))
	assert.ErrorIs(t, s.Invitations().Accept(ctx, sender, me, f), store.ErrNotFound)

	friends, err := s.Friendships().ListByMember(ctx, me)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	other, ok := friends[0].Other(me)
	assert.True(t, ok)
	assert.Equal(t, sender, other)
}
