// Package memstore keeps every collection in process memory. It backs local
// development and the service tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]user.User
	friendships map[string]friendship.Friendship
	invitations map[string]invitation.Invitation
	wizzes      map[string]wizz.Wizz
}

func New() *Store {
	return &Store{
		users:       make(map[string]user.User),
		friendships: make(map[string]friendship.Friendship),
		invitations: make(map[string]invitation.Invitation),
		wizzes:      make(map[string]wizz.Wizz),
	}
}

func (s *Store) Users() store.UserRepository             { return userRepo{s} }
func (s *Store) Friendships() store.FriendshipRepository { return friendshipRepo{s} }
func (s *Store) Invitations() store.InvitationRepository { return invitationRepo{s} }
func (s *Store) Wizzes() store.WizzRepository            { return wizzRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// Counts returns the number of documents per collection.
func (s *Store) Counts() (users, friendships, invitations, wizzes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.friendships), len(s.invitations), len(s.wizzes)
}

// ---------- users ----------

type userRepo struct{ s *Store }

func cloneUser(u user.User) *user.User {
	u.DeviceTokens = slices.Clone(u.DeviceTokens)
	return &u
}

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r userRepo) FindByPhoneNumbers(ctx context.Context, phoneNumbers []string) ([]*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*user.User
	for _, u := range r.s.users {
		if slices.Contains(phoneNumbers, u.PhoneNumber) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) UpdateUsername(ctx context.Context, id, username string, at time.Time) error {
	return r.update(ctx, id, func(u *user.User) {
		u.Username = username
		u.ModifiedAt = at
	})
}

func (r userRepo) AddDeviceToken(ctx context.Context, id, token string, at time.Time) error {
	return r.update(ctx, id, func(u *user.User) {
		if !slices.Contains(u.DeviceTokens, token) {
			u.DeviceTokens = append(u.DeviceTokens, token)
		}
		u.ModifiedAt = at
	})
}

func (r userRepo) update(ctx context.Context, id string, fn func(*user.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

// ---------- friendships ----------

type friendshipRepo struct{ s *Store }

func (r friendshipRepo) Create(ctx context.Context, f *friendship.Friendship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.friendships[f.ID] = *f
	return nil
}

func (r friendshipRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.friendships, id)
	return nil
}

func (r friendshipRepo) ListByMember(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*friendship.Friendship
	for _, f := range r.s.friendships {
		if f.Has(userID) {
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r friendshipRepo) ByMember(userID string) cascade.Target {
	return &target[friendship.Friendship]{
		name:  "friends.userIds",
		mu:    &r.s.mu,
		docs:  r.s.friendships,
		match: func(f friendship.Friendship) bool { return f.Has(userID) },
	}
}

// ---------- invitations ----------

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.invitations[inv.ID] = *inv
	return nil
}

func (r invitationRepo) list(ctx context.Context, match func(invitation.Invitation) bool) ([]*invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*invitation.Invitation
	for _, inv := range r.s.invitations {
		if match(inv) {
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r invitationRepo) ListFrom(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, func(inv invitation.Invitation) bool { return inv.From == userID })
}

func (r invitationRepo) ListTo(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, func(inv invitation.Invitation) bool { return inv.To == userID })
}

func (r invitationRepo) Between(from, to string) cascade.Target {
	return &target[invitation.Invitation]{
		name:  "invitations.from.to",
		mu:    &r.s.mu,
		docs:  r.s.invitations,
		match: func(inv invitation.Invitation) bool { return inv.From == from && inv.To == to },
	}
}

func (r invitationRepo) Accept(ctx context.Context, from, to string, f *friendship.Friendship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var ids []string
	for id, inv := range r.s.invitations {
		if inv.From == from && inv.To == to {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return store.ErrNotFound
	}
	for _, id := range ids {
		delete(r.s.invitations, id)
	}
	r.s.friendships[f.ID] = *f
	return nil
}

// ---------- wizz ----------

type wizzRepo struct{ s *Store }

func (r wizzRepo) Add(ctx context.Context, w *wizz.Wizz) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc := *w
	doc.ID = uuid.NewString()
	r.s.wizzes[doc.ID] = doc
	return doc.ID, nil
}

func (r wizzRepo) ListTo(ctx context.Context, userID string, limit int) ([]*wizz.Wizz, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*wizz.Wizz
	for _, w := range r.s.wizzes {
		if w.To == userID {
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---------- cascade target ----------

type target[T any] struct {
	name  string
	mu    *sync.RWMutex
	docs  map[string]T
	match func(T) bool
}

func (t *target[T]) Name() string { return t.name }

func (t *target[T]) Next(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for id, doc := range t.docs {
		if t.match(doc) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (t *target[T]) DeleteBatch(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.docs, id)
	}
	return nil
}
