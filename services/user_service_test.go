package services

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/user"
)

func userIDs(users []*user.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCreateUser_DefaultsUsernameToPhone(t *testing.T) {
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())

	require.NoError(t, svc.CreateUser(context.Background(), "alice", "+33600000001"))

	u, err := st.Users().Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "+33600000001", u.Username)
	assert.Equal(t, "+33600000001", u.PhoneNumber)
	assert.Equal(t, fixedTime, u.CreatedAt)
}

func TestCreateUser_MissingID(t *testing.T) {
	svc := NewUserService(newTestStore(), testOptions(), testLog())
	err := svc.CreateUser(context.Background(), "", "+33600000001")
	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(err))
}

func TestDeleteUser_CascadesFriendships(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	opts := testOptions()
	opts.CascadeBatchSize = 2
	users := NewUserService(st, opts, testLog())
	invites := NewInvitationService(st, opts, testLog())

	addUser(t, st, "alice", "1")
	for i := range 5 {
		friend := fmt.Sprintf("friend%d", i)
		addUser(t, st, friend, friend)
		_, err := invites.SendInvitation(ctx, friend, "alice")
		require.NoError(t, err)
		ok, err := invites.AcceptInvitation(ctx, friend, "alice")
		require.NoError(t, err)
		require.True(t, ok)
	}
	addUser(t, st, "bob", "2")
	addUser(t, st, "carol", "3")
	_, err := invites.SendInvitation(ctx, "bob", "carol")
	require.NoError(t, err)
	_, err = invites.AcceptInvitation(ctx, "bob", "carol")
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, "alice"))

	_, err = st.Users().Get(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, friendships, _, _ := st.Counts()
	assert.Equal(t, 1, friendships, "only bob and carol stay friends")
}

func TestDeleteUser_MissingID(t *testing.T) {
	svc := NewUserService(newTestStore(), testOptions(), testLog())
	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(svc.DeleteUser(context.Background(), "")))
}

func TestGetUsername(t *testing.T) {
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())
	addUser(t, st, "alice", "1")

	name := svc.GetUsername(context.Background(), "alice")
	require.NotNil(t, name)
	assert.Equal(t, "alice", *name)

	assert.Nil(t, svc.GetUsername(context.Background(), "ghost"))
}

func TestUpdateUsername(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())
	addUser(t, st, "alice", "1")

	require.NoError(t, svc.UpdateUsername(ctx, "alice", "  Alice  "))
	u, err := st.Users().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)

	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(svc.UpdateUsername(ctx, "alice", " ")))
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(svc.UpdateUsername(ctx, "ghost", "Ghost")))
}

func TestGetUsersFromContacts_ChunksQueries(t *testing.T) {
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())

	phones := make([]string, 0, 25)
	for i := range 25 {
		phone := fmt.Sprintf("+336000000%02d", i)
		phones = append(phones, phone)
		if i%2 == 0 {
			addUser(t, st, fmt.Sprintf("user%02d", i), phone)
		}
	}
	// Same number twice across chunks must not duplicate the user.
	phones[24] = phones[0]

	users, err := svc.GetUsersFromContacts(context.Background(), phones)
	require.NoError(t, err)

	assert.EqualValues(t, 3, st.phoneQueries.Load())
	ids := userIDs(users)
	assert.Len(t, ids, 12)
	slices.Sort(ids)
	assert.Equal(t, len(ids), len(slices.Compact(slices.Clone(ids))))
}

func TestGetUsersFromContacts_Empty(t *testing.T) {
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())

	users, err := svc.GetUsersFromContacts(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
	assert.Zero(t, st.phoneQueries.Load())
}

func TestGetUsersFromContacts_FailedChunkIsDropped(t *testing.T) {
	st := newTestStore()
	st.failPhone = func(phoneNumbers []string) bool { return slices.Contains(phoneNumbers, "fail") }
	svc := NewUserService(st, Options{ContactsChunkSize: 2}, testLog())
	addUser(t, st, "alice", "a")
	addUser(t, st, "bob", "b")

	users, err := svc.GetUsersFromContacts(context.Background(), []string{"a", "fail", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, userIDs(users))
}

func TestGetUsersFromContacts_TooMany(t *testing.T) {
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())

	_, err := svc.GetUsersFromContacts(context.Background(), make([]string, MaxContactsPerCall+1))
	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(err))
	assert.Zero(t, st.phoneQueries.Load())
}

func TestRegisterDeviceToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewUserService(st, testOptions(), testLog())
	addUser(t, st, "alice", "1")

	require.NoError(t, svc.RegisterDeviceToken(ctx, "alice", "tok"))
	require.NoError(t, svc.RegisterDeviceToken(ctx, "alice", "tok"))

	u, err := st.Users().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, u.DeviceTokens)

	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(svc.RegisterDeviceToken(ctx, "alice", "")))
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(svc.RegisterDeviceToken(ctx, "ghost", "tok")))
}
