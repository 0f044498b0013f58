// Package postgres maps the document collections onto postgres tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"wizzAPI/internal/cascade"
	"wizzAPI/internal/migrations"
	"wizzAPI/internal/store"
	"wizzAPI/internal/types/friendship"
	"wizzAPI/internal/types/invitation"
	"wizzAPI/internal/types/user"
	"wizzAPI/internal/types/wizz"
)

type Store struct {
	db *pgxpool.Pool
}

// Open connects to dsn, checks the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(pool)
	if err := s.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(s.db)
	defer db.Close()

	return gooseUp(ctx, db)
}

func (s *Store) Users() store.UserRepository             { return userRepo{s.db} }
func (s *Store) Friendships() store.FriendshipRepository { return friendshipRepo{s.db} }
func (s *Store) Invitations() store.InvitationRepository { return invitationRepo{s.db} }
func (s *Store) Wizzes() store.WizzRepository            { return wizzRepo{s.db} }

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// ---------- users ----------

type userRepo struct{ db *pgxpool.Pool }

const userColumns = `id, phone_number, user_name, device_tokens, created_at, modified_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Username, &u.DeviceTokens, &u.CreatedAt, &u.ModifiedAt)
	return u, err
}

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		phone_number = EXCLUDED.phone_number,
		user_name = EXCLUDED.user_name,
		device_tokens = EXCLUDED.device_tokens,
		created_at = EXCLUDED.created_at,
		modified_at = EXCLUDED.modified_at
	`
	tokens := u.DeviceTokens
	if tokens == nil {
		tokens = []string{}
	}
	if _, err := r.db.Exec(ctx, query, u.ID, u.PhoneNumber, u.Username, tokens, u.CreatedAt, u.ModifiedAt); err != nil {
		return fmt.Errorf("insert user %s: %w", u.ID, err)
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r userRepo) FindByPhoneNumbers(ctx context.Context, phoneNumbers []string) ([]*user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = ANY($1) ORDER BY id`, phoneNumbers)
	if err != nil {
		return nil, fmt.Errorf("query users by phone number: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r userRepo) UpdateUsername(ctx context.Context, id, username string, at time.Time) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET user_name = $2, modified_at = $3 WHERE id = $1`, id, username, at)
	if err != nil {
		return fmt.Errorf("update username of %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r userRepo) AddDeviceToken(ctx context.Context, id, token string, at time.Time) error {
	query := `
	UPDATE users
	SET device_tokens = CASE
			WHEN $2 = ANY(device_tokens) THEN device_tokens
			ELSE array_append(device_tokens, $2)
		END,
		modified_at = $3
	WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, token, at)
	if err != nil {
		return fmt.Errorf("add device token for %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// ---------- friendships ----------

type friendshipRepo struct{ db *pgxpool.Pool }

const upsertFriendship = `
	INSERT INTO friendships (id, user_ids, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET user_ids = EXCLUDED.user_ids, created_at = EXCLUDED.created_at
	`

func (r friendshipRepo) Create(ctx context.Context, f *friendship.Friendship) error {
	if _, err := r.db.Exec(ctx, upsertFriendship, f.ID, f.UserIDs[:], f.CreatedAt); err != nil {
		return fmt.Errorf("insert friendship %s: %w", f.ID, err)
	}
	return nil
}

func (r friendshipRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete friendship %s: %w", id, err)
	}
	return nil
}

func (r friendshipRepo) ListByMember(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_ids, created_at FROM friendships WHERE $1 = ANY(user_ids) ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query friendships of %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*friendship.Friendship
	for rows.Next() {
		var (
			f   friendship.Friendship
			ids []string
		)
		if err := rows.Scan(&f.ID, &ids, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		if len(ids) != 2 {
			continue
		}
		f.UserIDs = [2]string{ids[0], ids[1]}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}
	return out, nil
}

func (r friendshipRepo) ByMember(userID string) cascade.Target {
	return &tableTarget{
		name:  "friendships.user_ids",
		db:    r.db,
		table: "friendships",
		where: `$1 = ANY(user_ids)`,
		args:  []any{userID},
	}
}

// ---------- invitations ----------

type invitationRepo struct{ db *pgxpool.Pool }

func (r invitationRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	query := `
	INSERT INTO invitations (id, from_user_id, to_user_id, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		from_user_id = EXCLUDED.from_user_id,
		to_user_id = EXCLUDED.to_user_id,
		created_at = EXCLUDED.created_at
	`
	if _, err := r.db.Exec(ctx, query, inv.ID, inv.From, inv.To, inv.CreatedAt); err != nil {
		return fmt.Errorf("insert invitation %s: %w", inv.ID, err)
	}
	return nil
}

func (r invitationRepo) list(ctx context.Context, column, userID string) ([]*invitation.Invitation, error) {
	query := `SELECT id, from_user_id, to_user_id, created_at FROM invitations WHERE ` + column + ` = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query invitations by %s: %w", column, err)
	}
	defer rows.Close()

	var out []*invitation.Invitation
	for rows.Next() {
		var inv invitation.Invitation
		if err := rows.Scan(&inv.ID, &inv.From, &inv.To, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return out, nil
}

func (r invitationRepo) ListFrom(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, "from_user_id", userID)
}

func (r invitationRepo) ListTo(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	return r.list(ctx, "to_user_id", userID)
}

func (r invitationRepo) Between(from, to string) cascade.Target {
	return &tableTarget{
		name:  "invitations.from.to",
		db:    r.db,
		table: "invitations",
		where: `from_user_id = $1 AND to_user_id = $2`,
		args:  []any{from, to},
	}
}

func (r invitationRepo) Accept(ctx context.Context, from, to string, f *friendship.Friendship) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM invitations WHERE from_user_id = $1 AND to_user_id = $2`, from, to)
	if err != nil {
		return fmt.Errorf("delete invitation %s -> %s: %w", from, to, err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.Exec(ctx, upsertFriendship, f.ID, f.UserIDs[:], f.CreatedAt); err != nil {
		return fmt.Errorf("insert friendship %s: %w", f.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit accept %s -> %s: %w", from, to, err)
	}
	return nil
}

// ---------- wizz ----------

type wizzRepo struct{ db *pgxpool.Pool }

func (r wizzRepo) Add(ctx context.Context, w *wizz.Wizz) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO wizzes (id, from_user_id, to_user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, uuid.New(), w.From, w.To, w.CreatedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert wizz %s -> %s: %w", w.From, w.To, err)
	}
	return id, nil
}

func (r wizzRepo) ListTo(ctx context.Context, userID string, limit int) ([]*wizz.Wizz, error) {
	query := `
	SELECT id::text, from_user_id, to_user_id, created_at
	FROM wizzes
	WHERE to_user_id = $1
	ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wizz to %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*wizz.Wizz
	for rows.Next() {
		var w wizz.Wizz
		if err := rows.Scan(&w.ID, &w.From, &w.To, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wizz: %w", err)
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wizz: %w", err)
	}
	return out, nil
}

// ---------- cascade target ----------

type tableTarget struct {
	name  string
	db    *pgxpool.Pool
	table string
	where string
	args  []any
}

func (t *tableTarget) Name() string { return t.name }

func (t *tableTarget) Next(ctx context.Context, limit int) ([]string, error) {
	args := append(append([]any{}, t.args...), limit)
	query := fmt.Sprintf(`SELECT id FROM %s WHERE %s ORDER BY id LIMIT $%d`, t.table, t.where, len(args))

	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (t *tableTarget) DeleteBatch(ctx context.Context, ids []string) error {
	_, err := t.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, t.table), ids)
	return err
}
