package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/apperr"
)

func befriend(t *testing.T, st *testStore, a, b string) {
	t.Helper()
	invites := NewInvitationService(st, testOptions(), testLog())
	_, err := invites.SendInvitation(context.Background(), a, b)
	require.NoError(t, err)
	ok, err := invites.AcceptInvitation(context.Background(), a, b)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetFriends_BothSides(t *testing.T) {
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	addUser(t, st, "carol", "3")
	befriend(t, st, "alice", "bob")
	befriend(t, st, "carol", "alice")

	svc := NewFriendService(st, testOptions(), testLog())

	assert.ElementsMatch(t, []string{"bob", "carol"}, userIDs(svc.GetFriends(context.Background(), "alice")))
	assert.Equal(t, []string{"alice"}, userIDs(svc.GetFriends(context.Background(), "bob")))
}

func TestGetFriends_DropsFailedLookups(t *testing.T) {
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	addUser(t, st, "carol", "3")
	befriend(t, st, "alice", "bob")
	befriend(t, st, "alice", "carol")
	st.failGet["bob"] = true

	svc := NewFriendService(st, testOptions(), testLog())
	assert.Equal(t, []string{"carol"}, userIDs(svc.GetFriends(context.Background(), "alice")))
}

func TestGetFriends_ReadFailureIsEmpty(t *testing.T) {
	st := newTestStore()
	st.failList = true

	svc := NewFriendService(st, testOptions(), testLog())
	friends := svc.GetFriends(context.Background(), "alice")
	assert.NotNil(t, friends)
	assert.Empty(t, friends)
}

func TestDeleteFriendship(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	befriend(t, st, "alice", "bob")

	svc := NewFriendService(st, testOptions(), testLog())
	require.NoError(t, svc.DeleteFriendship(ctx, "bob", "alice"))
	assert.Empty(t, svc.GetFriends(ctx, "alice"))

	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(svc.DeleteFriendship(ctx, "alice", "alice")))
	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(svc.DeleteFriendship(ctx, "alice", "")))
}
