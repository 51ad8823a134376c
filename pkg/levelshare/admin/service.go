// Package admin implements bulk administrative operations on users and
// levels. Every operation requires an actor carrying the admin role.
package admin

import (
	"context"

	"github.com/bect/levelshare/pkg/levelshare"
)

// Service defines administrative operations
type Service interface {
	// ListUsers returns all registered users.
	ListUsers(ctx context.Context, actor levelshare.Identity) ([]*levelshare.User, error)

	// ListAllLevels returns every level regardless of creator.
	ListAllLevels(ctx context.Context, actor levelshare.Identity) ([]*levelshare.Level, error)

	// DeleteUser removes a user and cascades to all their levels. Blob
	// deletions are best-effort; success is defined solely by removal of the
	// user record and all its level records.
	DeleteUser(ctx context.Context, actor levelshare.Identity, targetUsername string) error
}
