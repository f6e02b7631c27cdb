package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"
	"unsafe"

	"github.com/hupe1980/balltree/dataset"
	"github.com/hupe1980/balltree/internal/resource"
)

var (
	// ErrInvalidArgument is returned for a nil dataset or invalid options.
	ErrInvalidArgument = errors.New("tree: invalid argument")
	// ErrResourceExhausted is returned when the memory budget cannot hold the build.
	ErrResourceExhausted = errors.New("tree: resource exhausted")
)

const (
	// DefaultLeafSize partitions down to singletons.
	DefaultLeafSize = 1
	// DefaultSeed seeds center sampling.
	DefaultSeed int64 = 42
	// DefaultParallelThreshold is the smallest cluster whose children are built concurrently.
	DefaultParallelThreshold = 1024
)

type buildOptions struct {
	leafSize          int
	maxDepth          int
	seed              int64
	newRand           func(seed int64) *rand.Rand
	workers           int
	parallelThreshold int
	logger            *slog.Logger
	controller        *resource.Controller
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLeafSize sets the largest cluster that is not split further.
func WithLeafSize(n int) BuildOption {
	return func(o *buildOptions) {
		o.leafSize = n
	}
}

// WithMaxDepth stops partitioning at depth d. Zero means unlimited.
func WithMaxDepth(d int) BuildOption {
	return func(o *buildOptions) {
		o.maxDepth = d
	}
}

// WithSeed sets the seed from which every cluster's sampling RNG is derived.
func WithSeed(seed int64) BuildOption {
	return func(o *buildOptions) {
		o.seed = seed
	}
}

// WithRand replaces the RNG constructor used for center sampling.
func WithRand(fn func(seed int64) *rand.Rand) BuildOption {
	return func(o *buildOptions) {
		if fn != nil {
			o.newRand = fn
		}
	}
}

// WithWorkers bounds how many subtrees are built at the same time.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) {
		o.workers = n
	}
}

// WithParallelThreshold sets the smallest cluster whose children may be built concurrently.
func WithParallelThreshold(n int) BuildOption {
	return func(o *buildOptions) {
		if n > 0 {
			o.parallelThreshold = n
		}
	}
}

// WithLogger sets the logger for build progress. Nil disables logging.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// WithController shares a resource controller for worker slots and the
// memory budget. Subtrees are only forked when WithWorkers allows more than one.
func WithController(c *resource.Controller) BuildOption {
	return func(o *buildOptions) {
		o.controller = c
	}
}

// Build partitions data into a ball tree.
func Build[T any](ctx context.Context, data *dataset.Dataset[T], optFns ...BuildOption) (*Tree[T], error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrInvalidArgument)
	}

	opts := buildOptions{
		leafSize:          DefaultLeafSize,
		seed:              DefaultSeed,
		newRand:           func(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) },
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.leafSize < 1 {
		return nil, fmt.Errorf("%w: leaf size %d", ErrInvalidArgument, opts.leafSize)
	}
	if opts.maxDepth < 0 {
		return nil, fmt.Errorf("%w: max depth %d", ErrInvalidArgument, opts.maxDepth)
	}

	ctrl := opts.controller
	if ctrl == nil && opts.workers > 1 {
		ctrl = resource.NewController(resource.Config{MaxWorkers: int64(opts.workers - 1)})
	}

	n := data.Len()
	reserved := estimateBuildBytes(n)
	if err := ctrl.AcquireMemory(reserved); err != nil {
		return nil, fmt.Errorf("%w: build of %d items needs %d bytes: %w", ErrResourceExhausted, n, reserved, err)
	}
	defer ctrl.ReleaseMemory(reserved)

	start := time.Now()

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	p := &partitioner[T]{
		data:     data,
		perm:     perm,
		opts:     opts,
		ctrl:     ctrl,
		parallel: opts.workers > 1,
	}

	root, err := p.partition(ctx, 0, n, 0)
	if err != nil {
		return nil, err
	}

	s := &Structure{
		clusters:    flatten(root),
		permutation: perm,
		info: BuildInfo{
			Metric:   data.Metric().Name(),
			LeafSize: opts.leafSize,
			MaxDepth: opts.maxDepth,
			Seed:     opts.seed,
			BuiltAt:  time.Now().UTC(),
		},
	}

	if opts.logger != nil {
		sum := s.Summary()
		opts.logger.Debug("ball tree built",
			"items", n,
			"clusters", sum.Clusters,
			"leaves", sum.Leaves,
			"depth", sum.Depth,
			"duration", time.Since(start),
		)
	}

	return &Tree[T]{Structure: s, data: data}, nil
}

// estimateBuildBytes covers the permutation, a worst-case arena and the
// per-level distance scratch buffers.
func estimateBuildBytes(n int) int64 {
	const intBytes = int64(unsafe.Sizeof(int(0)))
	clusterBytes := int64(unsafe.Sizeof(Cluster{}))
	items := int64(n)
	return items*intBytes + (2*items-1)*clusterBytes + 3*items*8
}

// node owns its children during construction; flatten turns the node tree
// into the arena.
type node struct {
	cluster     Cluster
	left, right *node
}

func flatten(root *node) []Cluster {
	var out []Cluster
	var walk func(nd *node, parent int) int
	walk = func(nd *node, parent int) int {
		id := len(out)
		c := nd.cluster
		c.Parent, c.Left, c.Right = parent, -1, -1
		out = append(out, c)
		if nd.left != nil {
			l := walk(nd.left, id)
			r := walk(nd.right, id)
			out[id].Left, out[id].Right = l, r
		}
		return id
	}
	walk(root, -1)
	return out
}
