package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/google/uuid"
)

// Backend is a filesystem implementation of the levelshare.BlobStore
// interface. Blobs live under baseDir, one subdirectory per blob kind.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing blobs
	URLPrefix string // URL prefix the blobs are served under
}

// New creates a new filesystem blob store
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

var _ levelshare.BlobStore = (*Backend)(nil)

// PutBlob writes the blob to disk under a generated key.
func (b *Backend) PutBlob(ctx context.Context, r io.Reader, kind levelshare.BlobKind) (levelshare.BlobRef, error) {
	blobID := filepath.Join(string(kind), uuid.New().String())
	path := filepath.Join(b.baseDir, blobID)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return levelshare.BlobRef{}, fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return levelshare.BlobRef{}, fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return levelshare.BlobRef{}, fmt.Errorf("failed to write blob: %w", err)
	}

	return levelshare.BlobRef{
		URL:    b.url(blobID),
		BlobID: blobID,
	}, nil
}

// DeleteBlob removes the blob file.
func (b *Backend) DeleteBlob(ctx context.Context, blobID string, kind levelshare.BlobKind) error {
	path := filepath.Join(b.baseDir, blobID)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New("blob not found")
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// DownloadURL returns the URL the blob is served under.
func (b *Backend) DownloadURL(ctx context.Context, blobID string) (string, error) {
	if _, err := os.Stat(filepath.Join(b.baseDir, blobID)); err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("blob not found")
		}
		return "", fmt.Errorf("failed to stat blob: %w", err)
	}
	return b.url(blobID), nil
}

func (b *Backend) url(blobID string) string {
	if b.urlPrefix == "" {
		return "file://" + filepath.Join(b.baseDir, blobID)
	}
	return b.urlPrefix + "/" + filepath.ToSlash(blobID)
}
