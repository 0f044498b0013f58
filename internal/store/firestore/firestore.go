// Package firestore stores users and their relations in Cloud Firestore.
// Relations hold document references to the users collection.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

const (
	CollectionUsers       = "users"
	CollectionFriends     = "friends"
	CollectionInvitations = "invitations"
	CollectionWizz        = "wizz"
)

type userDoc struct {
	UserID       string    `firestore:"userId"`
	PhoneNumber  string    `firestore:"phoneNumber"`
	UserName     string    `firestore:"userName"`
	DeviceTokens []string  `firestore:"deviceTokens,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt"`
	ModifiedAt   time.Time `firestore:"modifiedAt"`
}

type friendDoc struct {
	UserIDs   []*firestore.DocumentRef `firestore:"userIds"`
	CreatedAt time.Time                `firestore:"createdAt"`
}

// edgeDoc is the shape of invitation and wizz documents.
type edgeDoc struct {
	From      *firestore.DocumentRef `firestore:"from"`
	To        *firestore.DocumentRef `firestore:"to"`
	CreatedAt time.Time              `firestore:"createdAt"`
}

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Users() store.UserRepository             { return userRepo{s} }
func (s *Store) Friendships() store.FriendshipRepository { return friendshipRepo{s} }
func (s *Store) Invitations() store.InvitationRepository { return invitationRepo{s} }
func (s *Store) Wizzes() store.WizzRepository            { return wizzRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.col(CollectionUsers).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

func (s *Store) userRef(id string) *firestore.DocumentRef {
	return s.col(CollectionUsers).Doc(id)
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return err
}

func refID(ref *firestore.DocumentRef) string {
	if ref == nil {
		return ""
	}
	return ref.ID
}

// ---------- users ----------

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	doc := userDoc{
		UserID:       u.ID,
		PhoneNumber:  u.PhoneNumber,
		UserName:     u.Username,
		DeviceTokens: u.DeviceTokens,
		CreatedAt:    u.CreatedAt,
		ModifiedAt:   u.ModifiedAt,
	}
	if _, err := r.s.userRef(u.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("set user %s: %w", u.ID, err)
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*user.User, error) {
	snap, err := r.s.userRef(id).Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return decodeUser(snap)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*user.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	return &user.User{
		ID:           snap.Ref.ID,
		PhoneNumber:  doc.PhoneNumber,
		Username:     doc.UserName,
		DeviceTokens: doc.DeviceTokens,
		CreatedAt:    doc.CreatedAt,
		ModifiedAt:   doc.ModifiedAt,
	}, nil
}

func (r userRepo) FindByPhoneNumbers(ctx context.Context, phoneNumbers []string) ([]*user.User, error) {
	snaps, err := r.s.col(CollectionUsers).Where("phoneNumber", "in", phoneNumbers).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query users by phone number: %w", err)
	}

	users := make([]*user.User, 0, len(snaps))
	for _, snap := range snaps {
		u, err := decodeUser(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r userRepo) UpdateUsername(ctx context.Context, id, username string, at time.Time) error {
	_, err := r.s.userRef(id).Update(ctx, []firestore.Update{
		{Path: "userName", Value: username},
		{Path: "modifiedAt", Value: at},
	})
	return notFound(err)
}

func (r userRepo) AddDeviceToken(ctx context.Context, id, token string, at time.Time) error {
	_, err := r.s.userRef(id).Update(ctx, []firestore.Update{
		{Path: "deviceTokens", Value: firestore.ArrayUnion(token)},
		{Path: "modifiedAt", Value: at},
	})
	return notFound(err)
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.s.userRef(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// ---------- friendships ----------

type friendshipRepo struct{ s *Store }

func (r friendshipRepo) toDoc(f *friendship.Friendship) friendDoc {
	return friendDoc{
		UserIDs:   []*firestore.DocumentRef{r.s.userRef(f.UserIDs[0]), r.s.userRef(f.UserIDs[1])},
		CreatedAt: f.CreatedAt,
	}
}

func (r friendshipRepo) Create(ctx context.Context, f *friendship.Friendship) error {
	if _, err := r.s.col(CollectionFriends).Doc(f.ID).Set(ctx, r.toDoc(f)); err != nil {
		return fmt.Errorf("set friendship %s: %w", f.ID, err)
	}
	return nil
}

func (r friendshipRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.s.col(CollectionFriends).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete friendship %s: %w", id, err)
	}
	return nil
}

func (r friendshipRepo) byMember(userID string) firestore.Query {
	return r.s.col(CollectionFriends).Where("userIds", "array-contains", r.s.userRef(userID))
}

func (r friendshipRepo) ListByMember(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	snaps, err := r.byMember(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query friendships of %s: %w", userID, err)
	}

	out := make([]*friendship.Friendship, 0, len(snaps))
	for _, snap := range snaps {
		var doc friendDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode friendship %s: %w", snap.Ref.ID, err)
		}
		if len(doc.UserIDs) != 2 {
			continue
		}
		out = append(out, &friendship.Friendship{
			ID:        snap.Ref.ID,
			UserIDs:   [2]string{refID(doc.UserIDs[0]), refID(doc.UserIDs[1])},
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (r friendshipRepo) ByMember(userID string) cascade.Target {
	return &queryTarget{
		name:   CollectionFriends + ".userIds",
		client: r.s.client,
		col:    r.s.col(CollectionFriends),
		query:  r.byMember(userID),
	}
}

// ---------- invitations ----------

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	doc := edgeDoc{From: r.s.userRef(inv.From), To: r.s.userRef(inv.To), CreatedAt: inv.CreatedAt}
	if _, err := r.s.col(CollectionInvitations).Doc(inv.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("set invitation %s: %w", inv.ID, err)
	}
	return nil
}

func (r invitationRepo) list(ctx context.Context, field, userID string) ([]*invitation.Invitation, error) {
	snaps, err := r.s.col(CollectionInvitations).Where(field, "==", r.s.userRef(userID)).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query invitations %s %s: %w", field, userID, err)
	}

	out := make([]*invitation.Invitation, 0, len(snaps))
	for _, snap := range snaps {
		var doc edgeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode invitation %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &invitation.Invitation{
			ID:        snap.Ref.ID,
			From:      refID(doc.From),
			To:        refID(doc.To),
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (r invitationRepo) ListFrom(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, "from", userID)
}

func (r invitationRepo) ListTo(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, "to", userID)
}

func (r invitationRepo) between(from, to string) firestore.Query {
	return r.s.col(CollectionInvitations).
		Where("from", "==", r.s.userRef(from)).
		Where("to", "==", r.s.userRef(to))
}

func (r invitationRepo) Between(from, to string) cascade.Target {
	return &queryTarget{
		name:   CollectionInvitations + ".from.to",
		client: r.s.client,
		col:    r.s.col(CollectionInvitations),
		query:  r.between(from, to),
	}
}

func (r invitationRepo) Accept(ctx context.Context, from, to string, f *friendship.Friendship) error {
	friends := friendshipRepo{r.s}
	query := r.between(from, to)

	err := r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return store.ErrNotFound
		}
		for _, snap := range snaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		return tx.Set(r.s.col(CollectionFriends).Doc(f.ID), friends.toDoc(f))
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("accept invitation %s -> %s: %w", from, to, err)
	}
	return nil
}

// ---------- wizz ----------

type wizzRepo struct{ s *Store }

func (r wizzRepo) Add(ctx context.Context, w *wizz.Wizz) (string, error) {
	doc := edgeDoc{From: r.s.userRef(w.From), To: r.s.userRef(w.To), CreatedAt: w.CreatedAt}
	ref, _, err := r.s.col(CollectionWizz).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("add wizz %s -> %s: %w", w.From, w.To, err)
	}
	return ref.ID, nil
}

// ListTo needs a composite index on (to, createdAt desc).
func (r wizzRepo) ListTo(ctx context.Context, userID string, limit int) ([]*wizz.Wizz, error) {
	q := r.s.col(CollectionWizz).
		Where("to", "==", r.s.userRef(userID)).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query wizz to %s: %w", userID, err)
	}

	out := make([]*wizz.Wizz, 0, len(snaps))
	for _, snap := range snaps {
		var doc edgeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode wizz %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &wizz.Wizz{
			ID:        snap.Ref.ID,
			From:      refID(doc.From),
			To:        refID(doc.To),
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

// ---------- cascade target ----------

type queryTarget struct {
	name   string
	client *firestore.Client
	col    *firestore.CollectionRef
	query  firestore.Query
}

func (t *queryTarget) Name() string { return t.name }

func (t *queryTarget) Next(ctx context.Context, limit int) ([]string, error) {
	snaps, err := t.query.Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}

func (t *queryTarget) DeleteBatch(ctx context.Context, ids []string) error {
	return t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, id := range ids {
			if err := tx.Delete(t.col.Doc(id)); err != nil {
				return err
			}
		}
		return nil
	})
}
