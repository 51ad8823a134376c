package levelshare

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository  Repository
	blobStore   BlobStore
	uploadLimit int64
	searchLimit int
	logger      *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob store for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithUploadLimit overrides the combined byte ceiling for one publish.
func WithUploadLimit(limit int64) Option {
	return func(s *service) {
		s.uploadLimit = limit
	}
}

// WithSearchLimit overrides the search result cap.
func WithSearchLimit(limit int) Option {
	return func(s *service) {
		s.searchLimit = limit
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		uploadLimit: DefaultUploadLimit,
		searchLimit: DefaultSearchLimit,
		logger:      slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

func (s *service) Publish(ctx context.Context, actor Identity, req PublishRequest) (*Level, error) {
	// Validation happens before any blob upload; a rejected publish has no
	// side effects at all.
	if actor.Username == "" {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(req.Payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidInput)
	}
	if len(req.Images) > MaxImagesPerLevel {
		return nil, fmt.Errorf("%w: at most %d images allowed", ErrInvalidInput, MaxImagesPerLevel)
	}
	total := int64(len(req.Payload))
	for _, img := range req.Images {
		total += int64(len(img))
	}
	if total > s.uploadLimit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, total, s.uploadLimit)
	}

	payload, err := s.blobStore.PutBlob(ctx, bytes.NewReader(req.Payload), BlobKindDocument)
	if err != nil {
		s.logger.Error("payload upload failed", "creator", actor.Username, "err", err)
		return nil, fmt.Errorf("upload payload: %w", ErrUploadFailed)
	}

	images := make([]BlobRef, 0, len(req.Images))
	for i, img := range req.Images {
		ref, err := s.blobStore.PutBlob(ctx, bytes.NewReader(img), BlobKindImage)
		if err != nil {
			// A level never persists with a subset of its declared images;
			// undo what was uploaded so far and fail the publish.
			s.logger.Error("image upload failed", "creator", actor.Username, "index", i, "err", err)
			s.compensateUploads(ctx, payload, images)
			return nil, fmt.Errorf("upload image %d: %w", i, ErrUploadFailed)
		}
		images = append(images, ref)
	}

	level := &Level{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		CreatorUsername: actor.Username,
		Images:          images,
		Payload:         payload,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repository.CreateLevel(ctx, level); err != nil {
		s.compensateUploads(ctx, payload, images)
		return nil, &LevelError{LevelID: level.ID, Op: "publish", Err: err}
	}

	s.logger.Info("level published", "level_id", level.ID, "creator", actor.Username,
		"images", len(images), "bytes", total)
	return level, nil
}

// compensateUploads best-effort deletes blobs uploaded by a failed publish.
// Failures are logged, not escalated; the worst case is an orphaned blob.
func (s *service) compensateUploads(ctx context.Context, payload BlobRef, images []BlobRef) {
	if err := s.blobStore.DeleteBlob(ctx, payload.BlobID, BlobKindDocument); err != nil {
		s.logger.Warn("compensation delete failed", "blob_id", payload.BlobID, "err", err)
	}
	for _, ref := range images {
		if err := s.blobStore.DeleteBlob(ctx, ref.BlobID, BlobKindImage); err != nil {
			s.logger.Warn("compensation delete failed", "blob_id", ref.BlobID, "err", err)
		}
	}
}

func (s *service) GetLevel(ctx context.Context, id uuid.UUID) (*Level, error) {
	return s.repository.GetLevel(ctx, id)
}

func (s *service) ListLevels(ctx context.Context, req ListLevelsRequest) ([]*Level, error) {
	return s.repository.ListLevels(ctx, LevelFilter{Creator: req.Creator})
}

func (s *service) SearchLevels(ctx context.Context, query string) ([]*Level, error) {
	if strings.TrimSpace(query) == "" {
		return []*Level{}, nil
	}
	return s.repository.SearchLevels(ctx, query, s.searchLimit)
}

func (s *service) DeleteLevel(ctx context.Context, actor Identity, id uuid.UUID) error {
	level, err := s.repository.GetLevel(ctx, id)
	if err != nil {
		return err
	}

	if actor.Username != level.CreatorUsername && !actor.IsAdmin() {
		return ErrForbidden
	}

	// Blobs first, record last: a crash mid-way leaves an orphaned blob,
	// never a record pointing at a deleted blob.
	s.deleteLevelBlobs(ctx, level)

	if err := s.repository.DeleteLevel(ctx, id); err != nil {
		return &LevelError{LevelID: id, Op: "delete", Err: err}
	}

	s.logger.Info("level deleted", "level_id", id, "actor", actor.Username)
	return nil
}

// deleteLevelBlobs removes a level's blobs, each attempt independent and
// best-effort. A failed blob delete must not block removal of the record.
func (s *service) deleteLevelBlobs(ctx context.Context, level *Level) {
	if level.Payload.BlobID != "" {
		if err := s.blobStore.DeleteBlob(ctx, level.Payload.BlobID, BlobKindDocument); err != nil {
			s.logger.Warn("payload blob delete failed", "level_id", level.ID,
				"blob_id", level.Payload.BlobID, "err", err)
		}
	}
	for _, ref := range level.Images {
		if err := s.blobStore.DeleteBlob(ctx, ref.BlobID, BlobKindImage); err != nil {
			s.logger.Warn("image blob delete failed", "level_id", level.ID,
				"blob_id", ref.BlobID, "err", err)
		}
	}
}

func (s *service) PayloadDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	level, err := s.repository.GetLevel(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.blobStore.DownloadURL(ctx, level.Payload.BlobID)
	if err != nil {
		return "", &StorageError{
			Kind:   BlobKindDocument,
			BlobID: level.Payload.BlobID,
			Op:     "download_url",
			Err:    err,
		}
	}
	return url, nil
}
