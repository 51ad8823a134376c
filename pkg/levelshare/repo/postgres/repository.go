package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bect/levelshare/pkg/levelshare"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements levelshare.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ levelshare.Repository = (*Repository)(nil)

// mapError translates driver errors into domain sentinels. Unique violations
// on the username constraint become ErrDuplicateUsername; transport failures
// become ErrStoreUnavailable so the caller answers with a server error
// instead of crashing.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return levelshare.ErrDuplicateUsername
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", op, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", levelshare.ErrStoreUnavailable, op, err)
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *levelshare.User) error {
	query := `
		INSERT INTO users (id, username, credential_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.CredentialHash, string(user.Role), user.CreatedAt)
	if err != nil {
		return mapError("create user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*levelshare.User, error) {
	query := `
		SELECT id, username, credential_hash, role, created_at
		FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, levelshare.ErrUserNotFound
		}
		return nil, mapError("get user", err)
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*levelshare.User, error) {
	query := `
		SELECT id, username, credential_hash, role, created_at
		FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, levelshare.ErrUserNotFound
		}
		return nil, mapError("get user by username", err)
	}
	return user, nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, username string, role levelshare.Role) error {
	query := `UPDATE users SET role = $2 WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username, string(role))
	if err != nil {
		return mapError("update user role", err)
	}
	if tag.RowsAffected() == 0 {
		return levelshare.ErrUserNotFound
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username)
	if err != nil {
		return mapError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return levelshare.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*levelshare.User, error) {
	query := `
		SELECT id, username, credential_hash, role, created_at
		FROM users ORDER BY username`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	var users []*levelshare.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*levelshare.User, error) {
	var user levelshare.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.CredentialHash, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = levelshare.Role(role)
	return &user, nil
}

// Level operations

func (r *Repository) CreateLevel(ctx context.Context, level *levelshare.Level) error {
	images, err := json.Marshal(level.Images)
	if err != nil {
		return fmt.Errorf("marshal image refs: %w", err)
	}

	query := `
		INSERT INTO levels (
			id, title, description, creator_username,
			images, payload_url, payload_blob_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		level.ID, level.Title, level.Description, level.CreatorUsername,
		images, level.Payload.URL, level.Payload.BlobID, level.CreatedAt)
	if err != nil {
		return mapError("create level", err)
	}
	return nil
}

const levelColumns = `
	id, title, description, creator_username,
	images, payload_url, payload_blob_id, created_at`

func (r *Repository) GetLevel(ctx context.Context, id uuid.UUID) (*levelshare.Level, error) {
	query := `SELECT` + levelColumns + ` FROM levels WHERE id = $1`

	level, err := scanLevel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, levelshare.ErrLevelNotFound
		}
		return nil, mapError("get level", err)
	}
	return level, nil
}

func (r *Repository) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM levels WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapError("delete level", err)
	}
	if tag.RowsAffected() == 0 {
		return levelshare.ErrLevelNotFound
	}
	return nil
}

func (r *Repository) ListLevels(ctx context.Context, filter levelshare.LevelFilter) ([]*levelshare.Level, error) {
	query := `SELECT` + levelColumns + ` FROM levels`
	var args []interface{}
	if filter.Creator != "" {
		query += ` WHERE creator_username = $1`
		args = append(args, filter.Creator)
	}
	// seq is a bigserial assigned on insert; it keeps equal timestamps in
	// insertion order.
	query += ` ORDER BY created_at DESC, seq`

	return r.queryLevels(ctx, "list levels", query, args...)
}

func (r *Repository) SearchLevels(ctx context.Context, query string, limit int) ([]*levelshare.Level, error) {
	pattern := "%" + escapeLike(query) + "%"
	sql := `SELECT` + levelColumns + `
		FROM levels
		WHERE title ILIKE $1 OR creator_username ILIKE $1
		ORDER BY created_at DESC, seq
		LIMIT $2`

	return r.queryLevels(ctx, "search levels", sql, pattern, limit)
}

func (r *Repository) queryLevels(ctx context.Context, op, query string, args ...interface{}) ([]*levelshare.Level, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var levels []*levelshare.Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

func scanLevel(row pgx.Row) (*levelshare.Level, error) {
	var level levelshare.Level
	var images []byte
	if err := row.Scan(
		&level.ID, &level.Title, &level.Description, &level.CreatorUsername,
		&images, &level.Payload.URL, &level.Payload.BlobID, &level.CreatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &level.Images); err != nil {
			return nil, fmt.Errorf("unmarshal image refs: %w", err)
		}
	}
	return &level, nil
}

// escapeLike escapes LIKE metacharacters so user queries match literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
