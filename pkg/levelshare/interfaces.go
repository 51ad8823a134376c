package levelshare

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for the external object store.
//
// Implementations own their connection pools and call timeouts; a hung remote
// surfaces here as an error, never as an indefinitely blocked caller.
type BlobStore interface {
	// PutBlob uploads one blob and returns its reference. The returned
	// BlobRef is the only way a blob ever enters a Level record.
	PutBlob(ctx context.Context, r io.Reader, kind BlobKind) (BlobRef, error)

	// DeleteBlob removes a blob by the id PutBlob returned.
	DeleteBlob(ctx context.Context, blobID string, kind BlobKind) error

	// DownloadURL returns a fresh URL for fetching the blob. Backends with
	// expiring links (presigned S3) re-sign here; others echo the stored URL.
	DownloadURL(ctx context.Context, blobID string) (string, error)
}

// Repository defines the interface for user and level persistence
type Repository interface {
	// User operations
	//
	// CreateUser is the authoritative uniqueness check: it must fail with
	// ErrDuplicateUsername on conflict regardless of any prior lookup.
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUserRole(ctx context.Context, username string, role Role) error
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]*User, error)

	// Level operations
	CreateLevel(ctx context.Context, level *Level) error
	GetLevel(ctx context.Context, id uuid.UUID) (*Level, error)
	DeleteLevel(ctx context.Context, id uuid.UUID) error
	// ListLevels returns levels newest-first, stable by insertion order for
	// equal timestamps.
	ListLevels(ctx context.Context, filter LevelFilter) ([]*Level, error)
	// SearchLevels matches a case-insensitive substring against title or
	// creator username, newest-first, capped at limit.
	SearchLevels(ctx context.Context, query string, limit int) ([]*Level, error)
}
