package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

// LinearKNN is KNN by exhaustive scan.
func LinearKNN[T any](ctx context.Context, t *tree.Tree[T], q T, k int, optFns ...Option) ([]Hit, error) {
	if err := checkTree(t); err != nil {
		return nil, err
	}
	k, err := checkK(k, t.Len())
	if err != nil {
		return nil, err
	}
	opts := newOptions(optFns)
	if k == 0 {
		return []Hit{}, nil
	}

	qc := newQuery(t, q)
	hits := queue.NewMax(k)
	err = qc.sweep(ctx, func(idx int, d float64) {
		hits.PushBounded(queue.Item{ID: idx, Distance: d}, k)
	})
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	return toHits(hits.Sorted()), nil
}

// LinearWithin is WithinHits by exhaustive scan.
func LinearWithin[T any](ctx context.Context, t *tree.Tree[T], q T, radius float64, optFns ...Option) ([]Hit, error) {
	if err := checkRange(t, radius); err != nil {
		return nil, err
	}
	opts := newOptions(optFns)

	qc := newQuery(t, q)
	var items []queue.Item
	err := qc.sweep(ctx, func(idx int, d float64) {
		if d <= radius {
			items = append(items, queue.Item{ID: idx, Distance: d})
		}
	})
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, queue.Compare)
	return toHits(items), nil
}

// sweepChunk is how many items a linear scan measures between context checks.
const sweepChunk = 4096

// sweep measures q against every item in original order.
func (qc *query[T]) sweep(ctx context.Context, fn func(idx int, d float64)) error {
	n := qc.tree.Len()
	for lo := 0; lo < n; lo += sweepChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := min(lo+sweepChunk, n)
		qc.ids = qc.ids[:0]
		for idx := lo; idx < hi; idx++ {
			qc.ids = append(qc.ids, idx)
		}
		for x, d := range qc.distancesTo(qc.ids) {
			fn(qc.ids[x], d)
		}
	}
	return nil
}

// KNNWith dispatches to the k-NN implementation selected by alg.
func KNNWith[T any](ctx context.Context, alg Algorithm, t *tree.Tree[T], q T, k int, optFns ...Option) ([]Hit, error) {
	switch alg {
	case BestFirst:
		return KNN(ctx, t, q, k, optFns...)
	case RepeatedRange:
		return KNNRepeatedRange(ctx, t, q, k, optFns...)
	case Linear:
		return LinearKNN(ctx, t, q, k, optFns...)
	case BreadthFirst:
		return KNNBreadthFirst(ctx, t, q, k, optFns...)
	default:
		return nil, fmt.Errorf("%w: algorithm %v", ErrInvalidArgument, alg)
	}
}
