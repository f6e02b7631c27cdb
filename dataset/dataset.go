// Package dataset pairs an ordered collection of items with a metric.
//
// Items are stored in their original order and never reordered; trees hold a
// permutation over them instead. Batched distance methods split large batches
// across goroutines.
package dataset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/balltree/distance"
)

var (
	// ErrInvalidArgument is returned for an empty item set or a nil metric.
	ErrInvalidArgument = errors.New("dataset: invalid argument")
	// ErrEmpty is returned when a dataset would contain no items.
	ErrEmpty = fmt.Errorf("%w: empty dataset", ErrInvalidArgument)
)

// DefaultParallelThreshold is the smallest batch that is split across workers.
const DefaultParallelThreshold = 4096

type options struct {
	workers           int
	parallelThreshold int
}

// Option configures a Dataset.
type Option func(*options)

// WithWorkers sets how many goroutines a batched distance call may use.
// Values below 2 keep batches on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallelThreshold sets the smallest batch that is split across workers.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelThreshold = n
		}
	}
}

// Dataset is an ordered, immutable collection of items and the metric over them.
// It is safe for concurrent use as long as the metric is.
type Dataset[T any] struct {
	items  []T
	metric distance.Metric[T]
	opts   options
}

// New creates a dataset over items. The slice is not copied and must not be
// modified afterwards.
func New[T any](items []T, metric distance.Metric[T], optFns ...Option) (*Dataset[T], error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}
	if metric == nil {
		return nil, fmt.Errorf("%w: nil metric", ErrInvalidArgument)
	}

	opts := options{
		workers:           1,
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dataset[T]{items: items, metric: metric, opts: opts}, nil
}

// Len returns the number of items.
func (d *Dataset[T]) Len() int { return len(d.items) }

// Get returns the item at original index i.
func (d *Dataset[T]) Get(i int) T { return d.items[i] }

// Items returns the backing slice. Callers must treat it as read-only.
func (d *Dataset[T]) Items() []T { return d.items }

// Metric returns the dataset's metric.
func (d *Dataset[T]) Metric() distance.Metric[T] { return d.metric }

// Distance returns d(items[i], items[j]). The metric is not called when i == j.
func (d *Dataset[T]) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	return d.metric.Distance(d.items[i], d.items[j])
}

// DistanceTo returns d(q, items[i]).
func (d *Dataset[T]) DistanceTo(q T, i int) float64 {
	return d.metric.Distance(q, d.items[i])
}

// DistancesOneToMany writes d(items[i], items[js[x]]) into out[x].
// out must be at least as long as js.
func (d *Dataset[T]) DistancesOneToMany(i int, js []int, out []float64) {
	a := d.items[i]
	d.forEach(len(js), func(lo, hi int) {
		for x := lo; x < hi; x++ {
			j := js[x]
			if j == i {
				out[x] = 0
				continue
			}
			out[x] = d.metric.Distance(a, d.items[j])
		}
	})
}

// QueryDistances writes d(q, items[js[x]]) into out[x].
// out must be at least as long as js.
func (d *Dataset[T]) QueryDistances(q T, js []int, out []float64) {
	d.forEach(len(js), func(lo, hi int) {
		for x := lo; x < hi; x++ {
			out[x] = d.metric.Distance(q, d.items[js[x]])
		}
	})
}

// forEach runs fn over [0, n) in contiguous chunks, one per worker.
func (d *Dataset[T]) forEach(n int, fn func(lo, hi int)) {
	workers := d.opts.workers
	if workers < 2 || n < d.opts.parallelThreshold {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}
