package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wizzAPI/internal/store"
	"wizzAPI/internal/types/user"
)

// expandUsers loads every id concurrently and waits for all of them.
// Failed lookups are logged and dropped; the rest keep the order of ids.
func expandUsers(ctx context.Context, users store.UserRepository, ids []string, limit int, log *logrus.Entry) []*user.User {
	found := make([]*user.User, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			u, err := users.Get(ctx, id)
			if err != nil {
				log.WithError(err).WithField("user_id", id).Warn("Expand: failed to load user")
				return nil
			}
			found[i] = u
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*user.User, 0, len(ids))
	for _, u := range found {
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

// uniqueIDs drops empty ids, duplicates and self while keeping order.
func uniqueIDs(ids []string, self string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == self {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
