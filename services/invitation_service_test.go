package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/relkey"
	"wizzAPI/internal/types/invitation"
)

func TestSendInvitation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	svc := NewInvitationService(st, testOptions(), testLog())

	msg, err := svc.SendInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, InvitationSentMessage, msg)

	assert.Equal(t, []string{"bob"}, userIDs(svc.GetUsersInvited(ctx, "alice")))
	assert.Equal(t, []string{"alice"}, userIDs(svc.GetUsersInvitedMe(ctx, "bob")))
	assert.Empty(t, svc.GetUsersInvited(ctx, "bob"))

	_, err = svc.SendInvitation(ctx, "alice", "alice")
	assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(err))
}

func TestSendInvitation_ReciprocalInvitationsCoexist(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewInvitationService(st, testOptions(), testLog())

	_, err := svc.SendInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = svc.SendInvitation(ctx, "bob", "alice")
	require.NoError(t, err)

	_, _, invitations, _ := st.Counts()
	assert.Equal(t, 2, invitations)
}

func TestWithdrawInvitation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	svc := NewInvitationService(st, testOptions(), testLog())

	_, err := svc.SendInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	// A document keyed the symmetric way is removed as well.
	require.NoError(t, st.Invitations().Create(ctx, &invitation.Invitation{
		ID: relkey.Pair("bob", "alice"), From: "alice", To: "bob", CreatedAt: fixedTime,
	}))

	require.NoError(t, svc.WithdrawInvitation(ctx, "alice", "bob"))

	_, _, invitations, _ := st.Counts()
	assert.Zero(t, invitations)
	assert.Empty(t, svc.GetUsersInvited(ctx, "alice"))
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	addUser(t, st, "alice", "1")
	addUser(t, st, "bob", "2")
	invites := NewInvitationService(st, testOptions(), testLog())
	friends := NewFriendService(st, testOptions(), testLog())

	_, err := invites.SendInvitation(ctx, "alice", "bob")
	require.NoError(t, err)

	ok, err := invites.AcceptInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"bob"}, userIDs(friends.GetFriends(ctx, "alice")))
	assert.Equal(t, []string{"alice"}, userIDs(friends.GetFriends(ctx, "bob")))
	assert.Empty(t, invites.GetUsersInvitedMe(ctx, "bob"))

	ok, err = invites.AcceptInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to accept")
	assert.Len(t, friends.GetFriends(ctx, "alice"), 1)
}

func TestAcceptInvitation_WithoutInvitation(t *testing.T) {
	st := newTestStore()
	svc := NewInvitationService(st, testOptions(), testLog())

	ok, err := svc.AcceptInvitation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, friendships, _, _ := st.Counts()
	assert.Zero(t, friendships)
}

func TestRefuseInvitation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewInvitationService(st, testOptions(), testLog())

	_, err := svc.SendInvitation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RefuseInvitation(ctx, "alice", "bob"))

	_, friendships, invitations, _ := st.Counts()
	assert.Zero(t, friendships)
	assert.Zero(t, invitations)
}
