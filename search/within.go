package search

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/balltree/bounds"
	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

// ctxCheckInterval is how many clusters are visited between context checks.
const ctxCheckInterval = 64

// Within returns the original indices of all items with d(q, item) <= radius,
// in ascending order.
func Within[T any](ctx context.Context, t *tree.Tree[T], q T, radius float64, optFns ...Option) ([]int, error) {
	set, err := WithinSet(ctx, t, q, radius, optFns...)
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out, nil
}

// WithinSet is Within returning the result as a bitmap.
func WithinSet[T any](ctx context.Context, t *tree.Tree[T], q T, radius float64, optFns ...Option) (*roaring.Bitmap, error) {
	if err := checkRange(t, radius); err != nil {
		return nil, err
	}
	opts := newOptions(optFns)
	qc := newQuery(t, q)

	set := roaring.New()
	err := qc.rangeSearch(ctx, radius,
		func(c tree.Cluster, _ float64) {
			for _, idx := range t.Indices(c) {
				set.Add(uint32(idx))
			}
		},
		func(idx int, _ float64) {
			set.Add(uint32(idx))
		},
	)
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// WithinHits is Within with distances, ordered by (distance, index).
// Items of clusters entirely inside the ball are measured individually, so it
// evaluates more distances than Within.
func WithinHits[T any](ctx context.Context, t *tree.Tree[T], q T, radius float64, optFns ...Option) ([]Hit, error) {
	if err := checkRange(t, radius); err != nil {
		return nil, err
	}
	opts := newOptions(optFns)
	qc := newQuery(t, q)

	var items []queue.Item
	err := qc.rangeSearch(ctx, radius,
		func(c tree.Cluster, centerDist float64) {
			qc.scan(c, centerDist, func(idx int, d float64) {
				items = append(items, queue.Item{ID: idx, Distance: d})
			})
		},
		func(idx int, d float64) {
			items = append(items, queue.Item{ID: idx, Distance: d})
		},
	)
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, queue.Compare)
	return toHits(items), nil
}

func checkRange[T any](t *tree.Tree[T], radius float64) error {
	if err := checkTree(t); err != nil {
		return err
	}
	if radius < 0 || math.IsNaN(radius) {
		return fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return nil
}

// rangeSearch walks the clusters overlapping the ball (q, radius). Clusters
// entirely inside the ball go to subsumed with their center distance, items of
// straddling leaves that fall inside go to hit.
func (qc *query[T]) rangeSearch(
	ctx context.Context,
	radius float64,
	subsumed func(c tree.Cluster, centerDist float64),
	hit func(idx int, d float64),
) error {
	t := qc.tree
	stack := []int{0}
	for len(stack) > 0 {
		if qc.stats.ClustersVisited%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := t.Cluster(id)
		qc.stats.ClustersVisited++

		d := qc.distanceTo(c.Center)
		lower, upper := bounds.Of(d, c.Radius)
		switch {
		case lower > radius:
			qc.stats.ClustersPruned++
		case upper <= radius:
			subsumed(c, d)
		case c.IsLeaf():
			qc.scan(c, d, func(idx int, dist float64) {
				if dist <= radius {
					hit(idx, dist)
				}
			})
		default:
			stack = append(stack, c.Right, c.Left)
		}
	}
	return nil
}
