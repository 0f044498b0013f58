package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/relkey"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/user"
)

type FriendService struct {
	store store.Store
	opts  Options
	log   *logrus.Entry
}

func NewFriendService(st store.Store, opts Options, log *logrus.Entry) *FriendService {
	return &FriendService{store: st, opts: opts.withDefaults(), log: log}
}

// GetFriendIDs lists the other member of every friendship of userID.
func (s *FriendService) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	friendships, err := s.store.Friendships().ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		if other, ok := f.Other(userID); ok {
			ids = append(ids, other)
		}
	}
	return uniqueIDs(ids, userID), nil
}

// GetFriends degrades to an empty list when the friendships cannot be read.
func (s *FriendService) GetFriends(ctx context.Context, userID string) []*user.User {
	ids, err := s.GetFriendIDs(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("GetFriends: failed to read friendships")
		return []*user.User{}
	}
	return expandUsers(ctx, s.store.Users(), ids, s.opts.ExpansionConcurrency, s.log)
}

func (s *FriendService) DeleteFriendship(ctx context.Context, userID, friendID string) error {
	if err := relkey.Validate(userID, friendID); err != nil {
		return apperr.Wrap(err, apperr.InvalidArgument, "The friend identifier is invalid.")
	}

	if err := s.store.Friendships().Delete(ctx, relkey.Pair(userID, friendID)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "target_id": friendID}).
			Error("DeleteFriendship: failed to delete")
		return apperr.Wrap(err, apperr.NotFound, "Failed to delete the user friendship.")
	}
	return nil
}
