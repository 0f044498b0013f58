package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/cascade"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/user"
)

type UserService struct {
	store store.Store
	opts  Options
	log   *logrus.Entry
}

func NewUserService(st store.Store, opts Options, log *logrus.Entry) *UserService {
	return &UserService{store: st, opts: opts.withDefaults(), log: log}
}

// CreateUser stores the account the identity provider just created. The
// username starts as the phone number.
func (s *UserService) CreateUser(ctx context.Context, userID, phoneNumber string) error {
	if userID == "" {
		return apperr.New(apperr.InvalidArgument, "The user identifier is missing.")
	}

	now := s.opts.Now()
	u := &user.User{
		ID:          userID,
		PhoneNumber: phoneNumber,
		Username:    phoneNumber,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("CreateUser: failed to write user")
		return apperr.Wrap(err, apperr.NotFound, "Failed to create the user.")
	}

	s.log.WithField("user_id", userID).Info("CreateUser: user created")
	return nil
}

// DeleteUser removes every friendship of the user, then the user itself.
// Nothing is restored when the second step fails.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.New(apperr.InvalidArgument, "The user identifier is missing.")
	}
	log := s.log.WithField("user_id", userID)

	res, err := cascade.Delete(ctx, s.store.Friendships().ByMember(userID), s.opts.CascadeBatchSize)
	if err != nil {
		log.WithError(err).WithField("batches", res.Batches).Error("DeleteUser: failed to delete friendships")
		return apperr.Wrap(err, apperr.NotFound, "Failed to delete the user friendships.")
	}
	log.WithFields(logrus.Fields{"batches": res.Batches, "deleted": res.Deleted}).Info("DeleteUser: friendships deleted")

	if err := s.store.Users().Delete(ctx, userID); err != nil {
		log.WithError(err).Error("DeleteUser: failed to delete user")
		return apperr.Wrap(err, apperr.NotFound, "Failed to delete the user.")
	}

	log.Info("DeleteUser: user deleted")
	return nil
}

// GetUsername returns nil when the user cannot be read.
func (s *UserService) GetUsername(ctx context.Context, userID string) *string {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("GetUsername: failed to read user")
		return nil
	}
	return &u.Username
}

func (s *UserService) UpdateUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.New(apperr.InvalidArgument, "The username is missing.")
	}

	if err := s.store.Users().UpdateUsername(ctx, userID, username, s.opts.Now()); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("UpdateUsername: failed to update")
		return apperr.Wrap(err, apperr.NotFound, "Failed to update the username.")
	}
	return nil
}

// GetUsersFromContacts matches the phone numbers in chunks the store can
// filter on, all chunks at once. Failed chunks are left out. At most
// MaxContactsPerCall numbers are accepted.
func (s *UserService) GetUsersFromContacts(ctx context.Context, phoneNumbers []string) ([]*user.User, error) {
	if len(phoneNumbers) == 0 {
		return []*user.User{}, nil
	}
	if len(phoneNumbers) > MaxContactsPerCall {
		return nil, apperr.New(apperr.InvalidArgument,
			fmt.Sprintf("At most %d phone numbers can be matched at once.", MaxContactsPerCall))
	}

	size := s.opts.ContactsChunkSize
	chunks := make([][]string, 0, (len(phoneNumbers)+size-1)/size)
	for start := 0; start < len(phoneNumbers); start += size {
		chunks = append(chunks, phoneNumbers[start:min(start+size, len(phoneNumbers))])
	}

	results := make([][]*user.User, len(chunks))
	var g errgroup.Group
	g.SetLimit(s.opts.ExpansionConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			users, err := s.store.Users().FindByPhoneNumbers(ctx, chunk)
			if err != nil {
				s.log.WithError(err).WithField("chunk", i).Warn("GetUsersFromContacts: query failed")
				return nil
			}
			results[i] = users
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	out := []*user.User{}
	for _, users := range results {
		for _, u := range users {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *UserService) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.New(apperr.InvalidArgument, "The device token is missing.")
	}

	if err := s.store.Users().AddDeviceToken(ctx, userID, token, s.opts.Now()); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("RegisterDeviceToken: failed to save token")
		return apperr.Wrap(err, apperr.NotFound, "Failed to register the device token.")
	}
	return nil
}
