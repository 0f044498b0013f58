package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wizzAPI/internal/apperr"
	"wizzAPI/internal/notification"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/wizz"
)

// PushDispatcher queues a push without waiting for it to be sent. It must
// give up once ctx is done.
type PushDispatcher interface {
	Dispatch(ctx context.Context, p notification.Push) bool
}

type WizzService struct {
	store      store.Store
	friends    *FriendService
	dispatcher PushDispatcher
	opts       Options
	log        *logrus.Entry
}

// NewWizzService builds the service. dispatcher may be nil, in which case
// no push is sent.
func NewWizzService(st store.Store, friends *FriendService, dispatcher PushDispatcher, opts Options, log *logrus.Entry) *WizzService {
	return &WizzService{
		store:      st,
		friends:    friends,
		dispatcher: dispatcher,
		opts:       opts.withDefaults(),
		log:        log,
	}
}

// Wizz records one wizz for each selected id that is a friend of fromID
// and returns the ids whose record was written.
func (s *WizzService) Wizz(ctx context.Context, fromID string, selected []string) ([]string, error) {
	log := s.log.WithField("user_id", fromID)

	friendIDs, err := s.friends.GetFriendIDs(ctx, fromID)
	if err != nil {
		log.WithError(err).Error("Wizz: failed to load friend ids")
		return nil, apperr.Wrap(err, apperr.Unknown, "Failed to get the friend identifiers.")
	}
	friends := make(map[string]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = struct{}{}
	}

	var targets []string
	for _, id := range uniqueIDs(selected, fromID) {
		if _, ok := friends[id]; ok {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return []string{}, nil
	}

	sent := make([]bool, len(targets))

	var g errgroup.Group
	g.SetLimit(s.opts.ExpansionConcurrency)
	for i, to := range targets {
		g.Go(func() error {
			_, err := s.store.Wizzes().Add(ctx, &wizz.Wizz{From: fromID, To: to, CreatedAt: s.opts.Now()})
			if err != nil {
				wizzRecords.WithLabelValues("error").Inc()
				log.WithError(err).WithField("target_id", to).Error("Wizz: failed to send a wizz")
				return nil
			}
			wizzRecords.WithLabelValues("ok").Inc()
			sent[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(targets))
	for i, to := range targets {
		if sent[i] {
			out = append(out, to)
		}
	}
	s.notifyAll(ctx, fromID, out)
	log.WithFields(logrus.Fields{"requested": len(selected), "sent": len(out)}).Info("Wizz: done")
	return out, nil
}

func (s *WizzService) senderName(ctx context.Context, fromID string) string {
	u, err := s.store.Users().Get(ctx, fromID)
	if err != nil || u.Username == "" {
		return "A friend"
	}
	return u.Username
}

// notifyAll queues one push per recorded wizz. Records are written before
// this runs so push backpressure never changes the result.
func (s *WizzService) notifyAll(ctx context.Context, fromID string, toIDs []string) {
	if s.dispatcher == nil || len(toIDs) == 0 {
		return
	}
	sender := s.senderName(ctx, fromID)

	var g errgroup.Group
	g.SetLimit(s.opts.ExpansionConcurrency)
	for _, to := range toIDs {
		g.Go(func() error {
			if ctx.Err() == nil {
				s.notify(ctx, sender, fromID, to)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *WizzService) notify(ctx context.Context, sender, fromID, toID string) {
	u, err := s.store.Users().Get(ctx, toID)
	if err != nil {
		s.log.WithError(err).WithField("target_id", toID).Warn("Wizz: failed to load push tokens")
		return
	}
	if len(u.DeviceTokens) == 0 {
		return
	}

	s.dispatcher.Dispatch(ctx, notification.Push{
		UserID: toID,
		Tokens: u.DeviceTokens,
		Type:   notification.TypeWizz,
		Title:  "Wizz!",
		Body:   sender + " wizzed you",
		Data:   map[string]string{"from": fromID},
	})
}

// GetWizzesReceived returns the latest wizzes sent to userID, newest first.
func (s *WizzService) GetWizzesReceived(ctx context.Context, userID string, limit int) []*wizz.Wizz {
	if limit <= 0 || limit > DefaultWizzHistoryLimit {
		limit = DefaultWizzHistoryLimit
	}
	ws, err := s.store.Wizzes().ListTo(ctx, userID, limit)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("GetWizzesReceived: failed to read wizzes")
		return []*wizz.Wizz{}
	}
	if ws == nil {
		ws = []*wizz.Wizz{}
	}
	return ws
}
