package persistence

import (
	"context"
	"fmt"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/hupe1980/balltree/tree"
)

// readChunkSize bounds a single ranged read from a blob store.
const readChunkSize = 4 << 20

// Save encodes s and writes it to store under name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, s *tree.Structure, optFns ...Option) error {
	opts := newOptions(optFns)

	data, err := Marshal(s, optFns...)
	if err != nil {
		return err
	}
	if err := opts.controller.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("persistence: put %q: %w", name, err)
	}
	return nil
}

// Load reads the structure stored under name. Reads are chunked so a
// controller passed with WithController can rate-limit them.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*tree.Structure, error) {
	opts := newOptions(optFns)

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %q: %w", name, err)
	}
	defer blob.Close()

	if blob.Size() < HeaderSize {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupted)
	}

	data, err := blobstore.ReadAll(ctx, blob, readChunkSize, opts.controller.AcquireIO)
	if err != nil {
		return nil, truncated("blob", err)
	}
	return Unmarshal(data)
}
