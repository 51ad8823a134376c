package levelshare

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the level content library
type Service interface {
	// Publish uploads a level's payload and images to the blob store and
	// persists the record. Requires an authenticated actor.
	Publish(ctx context.Context, actor Identity, req PublishRequest) (*Level, error)

	// GetLevel retrieves one level by id.
	GetLevel(ctx context.Context, id uuid.UUID) (*Level, error)

	// ListLevels returns levels newest-first, optionally filtered by creator.
	ListLevels(ctx context.Context, req ListLevelsRequest) ([]*Level, error)

	// SearchLevels matches query case-insensitively against title or creator.
	SearchLevels(ctx context.Context, query string) ([]*Level, error)

	// DeleteLevel removes a level's blobs (best-effort) and its record.
	// Only the creator or an admin may delete.
	DeleteLevel(ctx context.Context, actor Identity, id uuid.UUID) error

	// PayloadDownloadURL resolves a fresh URL for the level's payload blob.
	PayloadDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
}
