package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/storage/fs"
)

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestPutDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: baseDir})
	require.NoError(t, err)

	ref, err := backend.PutBlob(ctx, strings.NewReader("level data"), levelshare.BlobKindDocument)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.BlobID, "document"+string(filepath.Separator)))

	data, err := os.ReadFile(filepath.Join(baseDir, ref.BlobID))
	require.NoError(t, err)
	assert.Equal(t, "level data", string(data))

	url, err := backend.DownloadURL(ctx, ref.BlobID)
	require.NoError(t, err)
	assert.Equal(t, ref.URL, url)

	require.NoError(t, backend.DeleteBlob(ctx, ref.BlobID, levelshare.BlobKindDocument))
	_, err = os.Stat(filepath.Join(baseDir, ref.BlobID))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, backend.DeleteBlob(ctx, ref.BlobID, levelshare.BlobKindDocument))
	_, err = backend.DownloadURL(ctx, ref.BlobID)
	assert.Error(t, err)
}

func TestURLPrefix(t *testing.T) {
	ctx := context.Background()
	backend, err := fs.New(fs.Config{
		BaseDir:   t.TempDir(),
		URLPrefix: "https://cdn.example.com/blobs",
	})
	require.NoError(t, err)

	ref, err := backend.PutBlob(ctx, strings.NewReader("img"), levelshare.BlobKindImage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.URL, "https://cdn.example.com/blobs/image/"))
}

func TestNoPrefixYieldsFileURL(t *testing.T) {
	ctx := context.Background()
	backend, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ref, err := backend.PutBlob(ctx, strings.NewReader("img"), levelshare.BlobKindImage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.URL, "file://"))
}
