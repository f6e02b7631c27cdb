package balltree

import (
	"context"
	"io"
	"slices"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/hupe1980/balltree/distance"
)

// Builder is an immutable fluent builder for ball tree indexes.
// Each method returns a new builder with the updated configuration.
//
// Example:
//
//	idx, err := balltree.New(distance.Levenshtein).
//	    LeafSize(16).
//	    Seed(7).
//	    Workers(4).
//	    Build(ctx, words)
type Builder[T any] struct {
	metric distance.Metric[T]
	opts   []Option
}

// New creates a builder for items compared under metric.
func New[T any](metric distance.Metric[T]) Builder[T] {
	return Builder[T]{metric: metric}
}

func (b Builder[T]) with(opt Option) Builder[T] {
	b.opts = append(slices.Clip(b.opts), opt)
	return b
}

// LeafSize sets the largest cluster that is not split further.
func (b Builder[T]) LeafSize(n int) Builder[T] { return b.with(WithLeafSize(n)) }

// MaxDepth stops splitting at depth d. 0 means unlimited.
func (b Builder[T]) MaxDepth(d int) Builder[T] { return b.with(WithMaxDepth(d)) }

// Seed seeds center sampling.
func (b Builder[T]) Seed(seed int64) Builder[T] { return b.with(WithSeed(seed)) }

// Workers bounds construction and batch search parallelism.
func (b Builder[T]) Workers(n int) Builder[T] { return b.with(WithWorkers(n)) }

// ParallelThreshold sets the smallest cluster built concurrently.
func (b Builder[T]) ParallelThreshold(n int) Builder[T] { return b.with(WithParallelThreshold(n)) }

// MemoryLimit caps the memory reserved by a build.
func (b Builder[T]) MemoryLimit(bytes int64) Builder[T] { return b.with(WithMemoryLimit(bytes)) }

// IOLimit throttles checkpoint IO.
func (b Builder[T]) IOLimit(bytesPerSec int64) Builder[T] { return b.with(WithIOLimit(bytesPerSec)) }

// Compression selects the codec for saved trees.
func (b Builder[T]) Compression(c Compression) Builder[T] { return b.with(WithCompression(c)) }

// Logger sets the logger.
func (b Builder[T]) Logger(l *Logger) Builder[T] { return b.with(WithLogger(l)) }

// Metrics sets the metrics collector.
func (b Builder[T]) Metrics(m MetricsCollector) Builder[T] { return b.with(WithMetricsCollector(m)) }

// Build indexes items.
func (b Builder[T]) Build(ctx context.Context, items []T) (*Index[T], error) {
	return Build(ctx, items, b.metric, b.opts...)
}

// ReadFrom decodes a tree from r and attaches it to items.
func (b Builder[T]) ReadFrom(r io.Reader, items []T) (*Index[T], error) {
	return ReadFrom(r, items, b.metric, b.opts...)
}

// LoadFile reads a tree from path and attaches it to items.
func (b Builder[T]) LoadFile(ctx context.Context, path string, items []T) (*Index[T], error) {
	return LoadFile(ctx, path, items, b.metric, b.opts...)
}

// Load reads a tree from store and attaches it to items.
func (b Builder[T]) Load(ctx context.Context, store blobstore.BlobStore, name string, items []T) (*Index[T], error) {
	return Load(ctx, store, name, items, b.metric, b.opts...)
}
