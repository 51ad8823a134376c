package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/google/uuid"
)

// Backend is an in-memory implementation of the levelshare.BlobStore
// interface, intended for tests and local development.
type Backend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates a new in-memory blob store
func New() *Backend {
	return &Backend{
		blobs: make(map[string][]byte),
	}
}

var _ levelshare.BlobStore = (*Backend)(nil)

// PutBlob stores the blob in memory under a generated id.
func (b *Backend) PutBlob(ctx context.Context, r io.Reader, kind levelshare.BlobKind) (levelshare.BlobRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return levelshare.BlobRef{}, err
	}

	blobID := fmt.Sprintf("%s/%s", kind, uuid.New())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[blobID] = data

	return levelshare.BlobRef{
		URL:    "memory://" + blobID,
		BlobID: blobID,
	}, nil
}

// DeleteBlob deletes a blob by id.
func (b *Backend) DeleteBlob(ctx context.Context, blobID string, kind levelshare.BlobKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[blobID]; !exists {
		return errors.New("blob not found")
	}
	delete(b.blobs, blobID)
	return nil
}

// DownloadURL returns the stored memory URL for the blob.
func (b *Backend) DownloadURL(ctx context.Context, blobID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.blobs[blobID]; !exists {
		return "", errors.New("blob not found")
	}
	return "memory://" + blobID, nil
}

// Get returns a stored blob's bytes. Test helper.
func (b *Backend) Get(blobID string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[blobID]
	if !exists {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many blobs the backend currently holds. Test helper.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
