package memory_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/storage/memory"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	ref, err := backend.PutBlob(ctx, strings.NewReader("hello"), levelshare.BlobKindDocument)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.BlobID, "document/"))
	assert.Equal(t, "memory://"+ref.BlobID, ref.URL)

	data, ok := backend.Get(ref.BlobID)
	require.True(t, ok)
	assert.True(t, bytes.Equal([]byte("hello"), data))
	assert.Equal(t, 1, backend.Len())

	url, err := backend.DownloadURL(ctx, ref.BlobID)
	require.NoError(t, err)
	assert.Equal(t, ref.URL, url)

	require.NoError(t, backend.DeleteBlob(ctx, ref.BlobID, levelshare.BlobKindDocument))
	assert.Zero(t, backend.Len())

	assert.Error(t, backend.DeleteBlob(ctx, ref.BlobID, levelshare.BlobKindDocument))
	_, err = backend.DownloadURL(ctx, ref.BlobID)
	assert.Error(t, err)
}

func TestKindPrefixesIDs(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	doc, err := backend.PutBlob(ctx, strings.NewReader("d"), levelshare.BlobKindDocument)
	require.NoError(t, err)
	img, err := backend.PutBlob(ctx, strings.NewReader("i"), levelshare.BlobKindImage)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.BlobID, "document/"))
	assert.True(t, strings.HasPrefix(img.BlobID, "image/"))
	assert.NotEqual(t, doc.BlobID, img.BlobID)
}
