// Package store declares the document store the services are built on.
// Implementations live in the firestore, postgres and memstore packages.
package store

import (
	"context"
	"errors"
	"time"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

var ErrNotFound = errors.New("document not found")

type Store interface {
	Users() UserRepository
	Friendships() FriendshipRepository
	Invitations() InvitationRepository
	Wizzes() WizzRepository
	Ping(ctx context.Context) error
	Close() error
}

type UserRepository interface {
	// Create writes the user at its id, replacing any previous document.
	Create(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id string) (*user.User, error)
	// FindByPhoneNumbers matches users whose phone number is in the list.
	// Callers keep the list within the store's membership-filter limit.
	FindByPhoneNumbers(ctx context.Context, phoneNumbers []string) ([]*user.User, error)
	UpdateUsername(ctx context.Context, id, username string, at time.Time) error
	AddDeviceToken(ctx context.Context, id, token string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type FriendshipRepository interface {
	Create(ctx context.Context, f *friendship.Friendship) error
	Delete(ctx context.Context, id string) error
	ListByMember(ctx context.Context, userID string) ([]*friendship.Friendship, error)
	// ByMember selects every friendship userID belongs to.
	ByMember(userID string) cascade.Target
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *invitation.Invitation) error
	ListFrom(ctx context.Context, userID string) ([]*invitation.Invitation, error)
	ListTo(ctx context.Context, userID string) ([]*invitation.Invitation, error)
	// Between selects the invitations sent by from to to, whatever their key.
	Between(from, to string) cascade.Target
	// Accept deletes the invitations from -> to and creates f in one
	// transaction. It returns ErrNotFound when there is no such invitation.
	Accept(ctx context.Context, from, to string, f *friendship.Friendship) error
}

type WizzRepository interface {
	Add(ctx context.Context, w *wizz.Wizz) (string, error)
	ListTo(ctx context.Context, userID string, limit int) ([]*wizz.Wizz, error)
}
