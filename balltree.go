package balltree

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/hupe1980/balltree/dataset"
	"github.com/hupe1980/balltree/distance"
	"github.com/hupe1980/balltree/internal/resource"
	"github.com/hupe1980/balltree/persistence"
	"github.com/hupe1980/balltree/search"
	"github.com/hupe1980/balltree/tree"
)

// Hit is a search result: an original item index and its distance from the query.
type Hit = search.Hit

// SearchStats counts the work done by a search.
type SearchStats = search.Stats

// Summary describes the shape of a tree.
type Summary = tree.Summary

// Algorithm selects a k-NN strategy.
type Algorithm = search.Algorithm

const (
	// BestFirst is branch and bound over a priority queue of clusters.
	BestFirst = search.BestFirst
	// RepeatedRange grows a ranged search until k items are confirmed.
	RepeatedRange = search.RepeatedRange
	// Linear scans every item.
	Linear = search.Linear
	// BreadthFirst sieves the tree level by level.
	BreadthFirst = search.BreadthFirst
)

// Compression selects the codec for saved trees.
type Compression = persistence.Compression

const (
	CompressionNone = persistence.CompressionNone
	CompressionLZ4  = persistence.CompressionLZ4
	CompressionZSTD = persistence.CompressionZSTD
)

// Index is an immutable ball tree over a set of items.
// It is safe for concurrent use.
type Index[T any] struct {
	tree *tree.Tree[T]
	opts options
	ctrl *resource.Controller
}

// Build indexes items under metric.
func Build[T any](ctx context.Context, items []T, metric distance.Metric[T], optFns ...Option) (*Index[T], error) {
	opts := newOptions(optFns)
	ctrl := opts.controller()

	start := time.Now()
	t, err := build(ctx, items, metric, opts, ctrl)
	duration := time.Since(start)

	clusters := 0
	if t != nil {
		clusters = t.NumClusters()
	}
	opts.logger.LogBuild(ctx, len(items), clusters, duration, err)
	opts.metrics.RecordBuild(len(items), duration, err)
	if err != nil {
		return nil, err
	}
	return &Index[T]{tree: t, opts: opts, ctrl: ctrl}, nil
}

func build[T any](ctx context.Context, items []T, metric distance.Metric[T], opts options, ctrl *resource.Controller) (*tree.Tree[T], error) {
	data, err := newDataset(items, metric, opts)
	if err != nil {
		return nil, err
	}
	t, err := tree.Build(ctx, data, opts.buildOptions(ctrl)...)
	return t, translateError(err)
}

func newDataset[T any](items []T, metric distance.Metric[T], opts options) (*dataset.Dataset[T], error) {
	data, err := dataset.New(items, metric, dataset.WithWorkers(opts.workers))
	return data, translateError(err)
}

// Len returns the number of indexed items.
func (idx *Index[T]) Len() int { return idx.tree.Len() }

// Tree exposes the underlying tree for read-only traversal.
func (idx *Index[T]) Tree() *tree.Tree[T] { return idx.tree }

// Stats summarizes the shape of the tree.
func (idx *Index[T]) Stats() Summary { return idx.tree.Summary() }

// Within returns the indices of all items within radius of q, sorted ascending.
func (idx *Index[T]) Within(ctx context.Context, q T, radius float64, optFns ...QueryOption) ([]int, error) {
	opts := newQueryOptions(optFns)
	start := time.Now()
	res, err := search.Within(ctx, idx.tree, q, radius, opts.searchOptions(idx.opts.workers)...)
	err = translateError(err)
	idx.recordSearch(ctx, "within", len(res), start, err)
	return res, err
}

// WithinHits is Within with distances, ordered by (distance, index).
func (idx *Index[T]) WithinHits(ctx context.Context, q T, radius float64, optFns ...QueryOption) ([]Hit, error) {
	opts := newQueryOptions(optFns)
	start := time.Now()
	res, err := search.WithinHits(ctx, idx.tree, q, radius, opts.searchOptions(idx.opts.workers)...)
	err = translateError(err)
	idx.recordSearch(ctx, "within", len(res), start, err)
	return res, err
}

// KNN returns the k items nearest to q ordered by (distance, index).
// k larger than Len is clamped.
func (idx *Index[T]) KNN(ctx context.Context, q T, k int, optFns ...QueryOption) ([]Hit, error) {
	opts := newQueryOptions(optFns)
	start := time.Now()
	res, err := search.KNNWith(ctx, opts.algorithm, idx.tree, q, k, opts.searchOptions(idx.opts.workers)...)
	err = translateError(err)
	idx.recordSearch(ctx, "knn", len(res), start, err)
	return res, err
}

// BatchKNN answers one k-NN query per element of queries concurrently.
// Results are in query order.
func (idx *Index[T]) BatchKNN(ctx context.Context, queries []T, k int, optFns ...QueryOption) ([][]Hit, error) {
	opts := newQueryOptions(optFns)
	start := time.Now()
	res, err := search.BatchKNN(ctx, idx.tree, queries, k, opts.searchOptions(idx.opts.workers)...)
	err = translateError(err)
	idx.recordSearch(ctx, "batch_knn", countHits(res), start, err)
	return res, err
}

// BatchWithin answers one ranged query per element of queries concurrently.
func (idx *Index[T]) BatchWithin(ctx context.Context, queries []T, radius float64, optFns ...QueryOption) ([][]Hit, error) {
	opts := newQueryOptions(optFns)
	start := time.Now()
	res, err := search.BatchWithin(ctx, idx.tree, queries, radius, opts.searchOptions(idx.opts.workers)...)
	err = translateError(err)
	idx.recordSearch(ctx, "batch_within", countHits(res), start, err)
	return res, err
}

func (idx *Index[T]) recordSearch(ctx context.Context, op string, results int, start time.Time, err error) {
	idx.opts.logger.LogSearch(ctx, op, results, err)
	idx.opts.metrics.RecordSearch(results, time.Since(start), err)
}

func countHits(res [][]Hit) int {
	n := 0
	for _, hits := range res {
		n += len(hits)
	}
	return n
}

// WriteTo serializes the tree structure to w. It implements io.WriterTo.
func (idx *Index[T]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	start := time.Now()
	err := persistence.Encode(cw, idx.tree.Structure, persistence.WithCompression(idx.opts.compression))
	idx.recordSave(context.Background(), "writer", start, err)
	return cw.n, err
}

// SaveFile writes the tree structure to path atomically.
func (idx *Index[T]) SaveFile(ctx context.Context, path string) error {
	start := time.Now()
	err := persistence.SaveFile(ctx, path, idx.tree.Structure, idx.opts.persistenceOptions(idx.ctrl)...)
	idx.recordSave(ctx, path, start, err)
	return err
}

// Save writes the tree structure to store under name.
func (idx *Index[T]) Save(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	err := persistence.Save(ctx, store, name, idx.tree.Structure, idx.opts.persistenceOptions(idx.ctrl)...)
	idx.recordSave(ctx, name, start, err)
	return err
}

func (idx *Index[T]) recordSave(ctx context.Context, target string, start time.Time, err error) {
	idx.opts.logger.LogSave(ctx, target, err)
	idx.opts.metrics.RecordSave(time.Since(start), err)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ReadFrom decodes a tree written by WriteTo and attaches it to items.
// items must be the same items, in the same order, the tree was built over.
func ReadFrom[T any](r io.Reader, items []T, metric distance.Metric[T], optFns ...Option) (*Index[T], error) {
	return load(context.Background(), "reader", items, metric, optFns, func(context.Context, options, *resource.Controller) (*tree.Structure, error) {
		return persistence.Decode(r)
	})
}

// LoadFile reads a tree written by SaveFile and attaches it to items.
func LoadFile[T any](ctx context.Context, path string, items []T, metric distance.Metric[T], optFns ...Option) (*Index[T], error) {
	return load(ctx, path, items, metric, optFns, func(ctx context.Context, opts options, ctrl *resource.Controller) (*tree.Structure, error) {
		return persistence.LoadFile(ctx, path, opts.persistenceOptions(ctrl)...)
	})
}

// Load reads a tree saved to store under name and attaches it to items.
func Load[T any](ctx context.Context, store blobstore.BlobStore, name string, items []T, metric distance.Metric[T], optFns ...Option) (*Index[T], error) {
	return load(ctx, name, items, metric, optFns, func(ctx context.Context, opts options, ctrl *resource.Controller) (*tree.Structure, error) {
		return persistence.Load(ctx, store, name, opts.persistenceOptions(ctrl)...)
	})
}

type decodeFunc func(ctx context.Context, opts options, ctrl *resource.Controller) (*tree.Structure, error)

func load[T any](ctx context.Context, source string, items []T, metric distance.Metric[T], optFns []Option, decode decodeFunc) (*Index[T], error) {
	opts := newOptions(optFns)
	ctrl := opts.controller()

	start := time.Now()
	t, err := attach(ctx, items, metric, opts, ctrl, decode)

	n := 0
	if t != nil {
		n = t.Len()
	}
	opts.logger.LogLoad(ctx, source, n, err)
	opts.metrics.RecordLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &Index[T]{tree: t, opts: opts, ctrl: ctrl}, nil
}

func attach[T any](ctx context.Context, items []T, metric distance.Metric[T], opts options, ctrl *resource.Controller, decode decodeFunc) (*tree.Tree[T], error) {
	data, err := newDataset(items, metric, opts)
	if err != nil {
		return nil, err
	}

	s, err := decode(ctx, opts, ctrl)
	if err != nil {
		return nil, err
	}

	if s.Len() != data.Len() {
		return nil, &ErrCardinalityMismatch{Expected: s.Len(), Actual: data.Len()}
	}
	if stored, name := s.Info().Metric, metric.Name(); stored != "" && name != "" && stored != name {
		return nil, fmt.Errorf("%w: tree was built with %q, got %q", ErrMetricMismatch, stored, name)
	}

	t, err := tree.Attach(s, data)
	return t, translateError(err)
}

// Attach wraps an already decoded structure, for callers that inspect the
// persisted metadata before choosing a metric.
func Attach[T any](ctx context.Context, s *tree.Structure, items []T, metric distance.Metric[T], optFns ...Option) (*Index[T], error) {
	return load(ctx, "structure", items, metric, optFns, func(context.Context, options, *resource.Controller) (*tree.Structure, error) {
		if s == nil {
			return nil, fmt.Errorf("%w: nil structure", ErrInvalidArgument)
		}
		return s, nil
	})
}
