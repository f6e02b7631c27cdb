package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("network down")))
}

func TestStore_Key(t *testing.T) {
	store := NewStore(nil, "bucket", "trees/")
	assert.Equal(t, "trees/a.bt", store.key("a.bt"))

	store = NewStore(nil, "bucket", "")
	assert.Equal(t, "a.bt", store.key("a.bt"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	store, err := New(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "test-balltree",
		Prefix:    "test-prefix/",
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, store.bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, store.bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.bt", data))

	blob, err := store.Open(ctx, "test.bt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	part := make([]byte, 10)
	n, err = blob.ReadAt(ctx, part, 12)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "world", string(part[:n]))
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.bt")

	require.NoError(t, store.Delete(ctx, "test.bt"))

	_, err = store.Open(ctx, "test.bt")
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
}
