package balltree

import (
	"runtime"

	"github.com/hupe1980/balltree/internal/resource"
	"github.com/hupe1980/balltree/persistence"
	"github.com/hupe1980/balltree/search"
	"github.com/hupe1980/balltree/tree"
)

type options struct {
	leafSize          int
	maxDepth          int
	seed              int64
	workers           int
	parallelThreshold int
	memoryLimit       int64
	ioLimit           int64
	compression       persistence.Compression
	logger            *Logger
	metrics           MetricsCollector
}

// Option configures Build and the loaders.
type Option func(*options)

func defaultOptions() options {
	return options{
		leafSize: tree.DefaultLeafSize,
		seed:     tree.DefaultSeed,
		workers:  runtime.GOMAXPROCS(0),
		logger:   NoopLogger(),
		metrics:  NoopMetricsCollector{},
	}
}

func newOptions(optFns []Option) options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithLeafSize sets the largest cluster that is not split further.
// Default: 1 (split down to single or identical items).
func WithLeafSize(n int) Option {
	return func(o *options) {
		o.leafSize = n
	}
}

// WithMaxDepth stops splitting at the given depth. 0 means unlimited.
func WithMaxDepth(d int) Option {
	return func(o *options) {
		o.maxDepth = d
	}
}

// WithSeed seeds the sampling used to pick cluster centers.
// The same items, metric, options and seed always produce the same tree.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers bounds the goroutines used by construction, batched distance
// computations and batch searches. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithParallelThreshold sets the smallest cluster whose halves are built
// concurrently.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.parallelThreshold = n
	}
}

// WithMemoryLimit caps the memory a build may reserve. Builds that need more
// fail with ErrResourceExhausted before allocating.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles checkpoint reads and writes to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCompression selects the payload codec for saved trees.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed,
// metrics are discarded.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// controller returns nil when no limit is configured.
func (o options) controller() *resource.Controller {
	if o.memoryLimit <= 0 && o.ioLimit <= 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		MaxWorkers:         int64(o.workers - 1),
		IOLimitBytesPerSec: o.ioLimit,
	})
}

func (o options) buildOptions(ctrl *resource.Controller) []tree.BuildOption {
	opts := []tree.BuildOption{
		tree.WithLeafSize(o.leafSize),
		tree.WithMaxDepth(o.maxDepth),
		tree.WithSeed(o.seed),
		tree.WithWorkers(o.workers),
		tree.WithParallelThreshold(o.parallelThreshold),
		tree.WithLogger(o.logger.Logger),
	}
	if ctrl != nil {
		opts = append(opts, tree.WithController(ctrl))
	}
	return opts
}

func (o options) persistenceOptions(ctrl *resource.Controller) []persistence.Option {
	return []persistence.Option{
		persistence.WithCompression(o.compression),
		persistence.WithController(ctrl),
	}
}

type queryOptions struct {
	algorithm Algorithm
	stats     *SearchStats
}

// QueryOption configures a single search.
type QueryOption func(*queryOptions)

// WithAlgorithm selects the k-NN algorithm. Default: BestFirst.
func WithAlgorithm(a Algorithm) QueryOption {
	return func(o *queryOptions) {
		o.algorithm = a
	}
}

// WithStats receives the work counters of the search.
func WithStats(s *SearchStats) QueryOption {
	return func(o *queryOptions) {
		o.stats = s
	}
}

func newQueryOptions(optFns []QueryOption) queryOptions {
	var opts queryOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

func (q queryOptions) searchOptions(workers int) []search.Option {
	opts := []search.Option{
		search.WithWorkers(workers),
		search.WithAlgorithm(q.algorithm),
	}
	if q.stats != nil {
		opts = append(opts, search.WithStats(q.stats))
	}
	return opts
}
