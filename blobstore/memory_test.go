package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'z'

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(3), blob.Size())

	got, err := ReadAll(ctx, blob, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, names)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Open(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadAll_Hook(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k", make([]byte, 10)))

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)

	var chunks []int
	got, err := ReadAll(ctx, blob, 4, func(_ context.Context, n int) error {
		chunks = append(chunks, n)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, []int{4, 4, 2}, chunks)

	boom := errors.New("boom")
	_, err = ReadAll(ctx, blob, 4, func(context.Context, int) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type shortBlob struct{ memoryBlob }

func (b *shortBlob) Size() int64 { return int64(len(b.data)) + 5 }

func TestReadAll_Truncated(t *testing.T) {
	blob := &shortBlob{memoryBlob{data: []byte("abc")}}
	_, err := ReadAll(context.Background(), blob, 16, nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
