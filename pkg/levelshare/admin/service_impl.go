package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bect/levelshare/pkg/levelshare"
)

// adminService implements the Service interface
type adminService struct {
	content levelshare.Service
	repo    levelshare.Repository
	logger  *slog.Logger
}

// Ensure adminService implements Service
var _ Service = (*adminService)(nil)

// Option represents a functional option for configuring the admin service
type Option func(*adminService)

// WithLogger sets the logger for the admin service
func WithLogger(logger *slog.Logger) Option {
	return func(s *adminService) {
		s.logger = logger
	}
}

// New creates a new admin service on top of the content service and the
// shared repository.
func New(content levelshare.Service, repo levelshare.Repository, options ...Option) (Service, error) {
	if content == nil {
		return nil, fmt.Errorf("content service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	s := &adminService{
		content: content,
		repo:    repo,
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

func (s *adminService) ListUsers(ctx context.Context, actor levelshare.Identity) ([]*levelshare.User, error) {
	if !actor.IsAdmin() {
		return nil, levelshare.ErrForbidden
	}
	return s.repo.ListUsers(ctx)
}

func (s *adminService) ListAllLevels(ctx context.Context, actor levelshare.Identity) ([]*levelshare.Level, error) {
	if !actor.IsAdmin() {
		return nil, levelshare.ErrForbidden
	}
	return s.repo.ListLevels(ctx, levelshare.LevelFilter{})
}

func (s *adminService) DeleteUser(ctx context.Context, actor levelshare.Identity, targetUsername string) error {
	if !actor.IsAdmin() {
		return levelshare.ErrForbidden
	}

	if _, err := s.repo.GetUserByUsername(ctx, targetUsername); err != nil {
		return err
	}

	levels, err := s.repo.ListLevels(ctx, levelshare.LevelFilter{Creator: targetUsername})
	if err != nil {
		return err
	}

	// Delete every level through the content service so the blob-then-record
	// ordering and best-effort blob policy apply. A level that vanished
	// concurrently is fine; a record-layer failure is not.
	var firstErr error
	for _, level := range levels {
		if err := s.content.DeleteLevel(ctx, actor, level.ID); err != nil {
			if errors.Is(err, levelshare.ErrLevelNotFound) {
				continue
			}
			s.logger.Error("cascade level delete failed", "level_id", level.ID,
				"target", targetUsername, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return &levelshare.UserError{Username: targetUsername, Op: "cascade_delete", Err: firstErr}
	}

	if err := s.repo.DeleteUser(ctx, targetUsername); err != nil {
		return &levelshare.UserError{Username: targetUsername, Op: "delete", Err: err}
	}

	s.logger.Info("user deleted", "target", targetUsername, "levels", len(levels),
		"actor", actor.Username)
	return nil
}
