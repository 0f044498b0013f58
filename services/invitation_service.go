package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/cascade"
	"wizzAPI/internal/relkey"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
)

const InvitationSentMessage = "Invitation sent!"

type InvitationService struct {
	store store.Store
	opts  Options
	log   *logrus.Entry
}

func NewInvitationService(st store.Store, opts Options, log *logrus.Entry) *InvitationService {
	return &InvitationService{store: st, opts: opts.withDefaults(), log: log}
}

func (s *InvitationService) SendInvitation(ctx context.Context, fromID, toID string) (string, error) {
	if err := relkey.Validate(fromID, toID); err != nil {
		return "", apperr.Wrap(err, apperr.InvalidArgument, "The invited user identifier is invalid.")
	}

	inv := &invitation.Invitation{
		ID:        relkey.Directed(fromID, toID),
		From:      fromID,
		To:        toID,
		CreatedAt: s.opts.Now(),
	}
	if err := s.store.Invitations().Create(ctx, inv); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": fromID, "target_id": toID}).
			Error("SendInvitation: failed to write invitation")
		return "", apperr.Wrap(err, apperr.NotFound, "Failed to send the invitation.")
	}
	return InvitationSentMessage, nil
}

// WithdrawInvitation deletes every invitation from fromID to toID.
func (s *InvitationService) WithdrawInvitation(ctx context.Context, fromID, toID string) error {
	if err := relkey.Validate(fromID, toID); err != nil {
		return apperr.Wrap(err, apperr.InvalidArgument, "The user identifier is invalid.")
	}

	res, err := cascade.Delete(ctx, s.store.Invitations().Between(fromID, toID), s.opts.CascadeBatchSize)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": fromID, "target_id": toID}).
			Error("WithdrawInvitation: failed to delete invitations")
		return apperr.Wrap(err, apperr.NotFound, "Failed to withdraw the invitation.")
	}
	s.log.WithFields(logrus.Fields{"user_id": fromID, "target_id": toID, "deleted": res.Deleted}).
		Debug("WithdrawInvitation: done")
	return nil
}

// AcceptInvitation turns the pending invitation from senderID into a
// friendship. It reports false when there was nothing to accept or the
// transaction failed.
func (s *InvitationService) AcceptInvitation(ctx context.Context, senderID, userID string) (bool, error) {
	if err := relkey.Validate(senderID, userID); err != nil {
		return false, apperr.Wrap(err, apperr.InvalidArgument, "The sender identifier is invalid.")
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "target_id": senderID})

	members := [2]string{senderID, userID}
	if members[1] < members[0] {
		members[0], members[1] = members[1], members[0]
	}
	f := &friendship.Friendship{
		ID:        relkey.Pair(senderID, userID),
		UserIDs:   members,
		CreatedAt: s.opts.Now(),
	}

	err := s.store.Invitations().Accept(ctx, senderID, userID, f)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("AcceptInvitation: no pending invitation")
		return false, nil
	case err != nil:
		log.WithError(err).Error("AcceptInvitation: transaction failed")
		return false, nil
	}

	log.Info("AcceptInvitation: friendship created")
	return true, nil
}

// RefuseInvitation drops the invitation from senderID without a friendship.
func (s *InvitationService) RefuseInvitation(ctx context.Context, senderID, userID string) error {
	return s.WithdrawInvitation(ctx, senderID, userID)
}

// GetUsersInvited lists the users userID has invited.
func (s *InvitationService) GetUsersInvited(ctx context.Context, userID string) []*user.User {
	invs, err := s.store.Invitations().ListFrom(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("GetUsersInvited: failed to read invitations")
		return []*user.User{}
	}

	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.To)
	}
	return expandUsers(ctx, s.store.Users(), uniqueIDs(ids, userID), s.opts.ExpansionConcurrency, s.log)
}

// GetUsersInvitedMe lists the users who invited userID.
func (s *InvitationService) GetUsersInvitedMe(ctx context.Context, userID string) []*user.User {
	invs, err := s.store.Invitations().ListTo(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("GetUsersInvitedMe: failed to read invitations")
		return []*user.User{}
	}

	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.From)
	}
	return expandUsers(ctx, s.store.Users(), uniqueIDs(ids, userID), s.opts.ExpansionConcurrency, s.log)
}
