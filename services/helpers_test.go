package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/logger"
	"wizzAPI/internal/notification"
	"wizzAPI/internal/store"
	"wizzAPI/internal/store/memstore"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

var (
	errBoom   = errors.New("boom")
	fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testLog() *logrus.Entry { return logger.Component(logger.Discard(), "test") }

func testOptions() Options {
	return Options{Now: func() time.Time { return fixedTime }}
}

// testStore wraps memstore so tests can count queries and inject failures.
type testStore struct {
	*memstore.Store

	phoneQueries atomic.Int32
	failPhone    func(phoneNumbers []string) bool
	failGet      map[string]bool
	failList     bool
	failWizzTo   map[string]bool
}

func newTestStore() *testStore {
	return &testStore{Store: memstore.New(), failGet: map[string]bool{}, failWizzTo: map[string]bool{}}
}

func (s *testStore) Users() store.UserRepository {
	return &testUsers{UserRepository: s.Store.Users(), s: s}
}
func (s *testStore) Friendships() store.FriendshipRepository {
	return &testFriendships{FriendshipRepository: s.Store.Friendships(), s: s}
}
func (s *testStore) Wizzes() store.WizzRepository {
	return &testWizzes{WizzRepository: s.Store.Wizzes(), s: s}
}

type testUsers struct {
	store.UserRepository
	s *testStore
}

func (u *testUsers) Get(ctx context.Context, id string) (*user.User, error) {
	if u.s.failGet[id] {
		return nil, errBoom
	}
	return u.UserRepository.Get(ctx, id)
}

func (u *testUsers) FindByPhoneNumbers(ctx context.Context, phoneNumbers []string) ([]*user.User, error) {
	u.s.phoneQueries.Add(1)
	if u.s.failPhone != nil && u.s.failPhone(phoneNumbers) {
		return nil, errBoom
	}
	return u.UserRepository.FindByPhoneNumbers(ctx, phoneNumbers)
}

type testFriendships struct {
	store.FriendshipRepository
	s *testStore
}

func (f *testFriendships) ListByMember(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	if f.s.failList {
		return nil, errBoom
	}
	return f.FriendshipRepository.ListByMember(ctx, userID)
}

type testWizzes struct {
	store.WizzRepository
	s *testStore
}

func (w *testWizzes) Add(ctx context.Context, wz *wizz.Wizz) (string, error) {
	if w.s.failWizzTo[wz.To] {
		return "", errBoom
	}
	return w.WizzRepository.Add(ctx, wz)
}

func addUser(t *testing.T, st store.Store, id, phone string, tokens ...string) {
	t.Helper()
	require.NoError(t, st.Users().Create(context.Background(), &user.User{
		ID:           id,
		PhoneNumber:  phone,
		Username:     id,
		DeviceTokens: tokens,
		CreatedAt:    fixedTime,
		ModifiedAt:   fixedTime,
	}))
}

type recordingDispatcher struct {
	mu     sync.Mutex
	pushes []notification.Push
}

func (d *recordingDispatcher) Dispatch(_ context.Context, p notification.Push) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, p)
	return true
}

func (d *recordingDispatcher) sent() []notification.Push {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Push(nil), d.pushes...)
}

// stalledDispatcher never accepts a push before ctx ends.
type stalledDispatcher struct {
	calls atomic.Int32
}

func (d *stalledDispatcher) Dispatch(ctx context.Context, _ notification.Push) bool {
	d.calls.Add(1)
	<-ctx.Done()
	return false
}
