package search

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

var (
	// ErrInvalidArgument is the base error for rejected query parameters.
	ErrInvalidArgument = errors.New("search: invalid argument")
	// ErrInvalidRadius is returned for a negative or NaN radius.
	ErrInvalidRadius = fmt.Errorf("%w: invalid radius", ErrInvalidArgument)
	// ErrInvalidK is returned for a negative k.
	ErrInvalidK = fmt.Errorf("%w: invalid k", ErrInvalidArgument)
)

// Hit is a search result.
type Hit struct {
	Index    int     // original dataset index
	Distance float64 // distance from the query
}

// Stats counts the work done by a search.
type Stats struct {
	DistanceEvaluations int64
	ClustersVisited     int64
	ClustersPruned      int64
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.DistanceEvaluations += o.DistanceEvaluations
	s.ClustersVisited += o.ClustersVisited
	s.ClustersPruned += o.ClustersPruned
}

// Algorithm selects a k-NN strategy.
type Algorithm int

const (
	// BestFirst is branch and bound over a min-heap of clusters.
	BestFirst Algorithm = iota
	// RepeatedRange grows a ranged search until k items are confirmed.
	RepeatedRange
	// Linear scans every item.
	Linear
	// BreadthFirst sieves the tree one level at a time, keeping the clusters
	// that can still hold one of the k nearest items.
	BreadthFirst
)

func (a Algorithm) String() string {
	switch a {
	case BestFirst:
		return "best-first"
	case RepeatedRange:
		return "repeated-range"
	case Linear:
		return "linear"
	case BreadthFirst:
		return "breadth-first"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// ParseAlgorithm resolves an algorithm by name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "best-first", "bestfirst", "dfs", "":
		return BestFirst, nil
	case "repeated-range", "rrnn":
		return RepeatedRange, nil
	case "linear", "brute-force":
		return Linear, nil
	case "breadth-first", "bfs", "sieve":
		return BreadthFirst, nil
	default:
		return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidArgument, s)
	}
}

type options struct {
	stats     *Stats
	workers   int
	algorithm Algorithm
}

// Option configures a search.
type Option func(*options)

// WithStats receives the search's work counters. For batch searches the
// counters of all queries are summed.
func WithStats(s *Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithWorkers bounds the number of concurrent queries in batch searches.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithAlgorithm selects the k-NN algorithm used by BatchKNN.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) {
		o.algorithm = a
	}
}

func newOptions(optFns []Option) options {
	opts := options{workers: runtime.GOMAXPROCS(0)}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

func (o options) report(s Stats) {
	if o.stats != nil {
		*o.stats = s
	}
}

// query is the private state of one search.
type query[T any] struct {
	tree  *tree.Tree[T]
	q     T
	stats Stats

	// scratch for batched leaf distances
	ids   []int
	dists []float64
}

func newQuery[T any](t *tree.Tree[T], q T) *query[T] {
	return &query[T]{tree: t, q: q}
}

func (qc *query[T]) distanceTo(idx int) float64 {
	qc.stats.DistanceEvaluations++
	return qc.tree.Dataset().DistanceTo(qc.q, idx)
}

// distancesTo measures q against ids in one batch. The returned slice is
// reused by the next call.
func (qc *query[T]) distancesTo(ids []int) []float64 {
	qc.dists = slices.Grow(qc.dists[:0], len(ids))[:len(ids)]
	qc.tree.Dataset().QueryDistances(qc.q, ids, qc.dists)
	qc.stats.DistanceEvaluations += int64(len(ids))
	return qc.dists
}

// scan calls fn with d(q, idx) for every item of c, in position order. The
// center distance is reused, and a zero-radius cluster costs nothing more.
func (qc *query[T]) scan(c tree.Cluster, centerDist float64, fn func(idx int, d float64)) {
	indices := qc.tree.Indices(c)
	if c.Radius == 0 {
		for _, idx := range indices {
			fn(idx, centerDist)
		}
		return
	}

	qc.ids = qc.ids[:0]
	for _, idx := range indices {
		if idx != c.Center {
			qc.ids = append(qc.ids, idx)
		}
	}
	dists := qc.distancesTo(qc.ids)

	j := 0
	for _, idx := range indices {
		if idx == c.Center {
			fn(idx, centerDist)
			continue
		}
		fn(idx, dists[j])
		j++
	}
}

func checkTree[T any](t *tree.Tree[T]) error {
	if t == nil || t.Structure == nil || t.Dataset() == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidArgument)
	}
	return nil
}

// checkK validates k and clamps it to the number of items.
func checkK(k, n int) (int, error) {
	if k < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	return min(k, n), nil
}

func toHits(items []queue.Item) []Hit {
	hits := make([]Hit, len(items))
	for i, it := range items {
		hits[i] = Hit{Index: it.ID, Distance: it.Distance}
	}
	return hits
}
