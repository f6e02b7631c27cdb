package search

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/hupe1980/balltree/bounds"
	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

// KNNBreadthFirst returns the same result as KNN by sieving the tree one level
// at a time.
//
// Each round orders the candidate clusters by the farthest distance any of
// their items can have, d(q, center) + radius. Walking that order until the
// clusters hold k items gives an upper bound on the k-th nearest distance;
// candidates whose lower bound exceeds it are dropped. Leaves, and clusters
// too small to be worth splitting while few candidates remain, are scanned.
// The rest are replaced by their children.
func KNNBreadthFirst[T any](ctx context.Context, t *tree.Tree[T], q T, k int, optFns ...Option) ([]Hit, error) {
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
	hits, err := qc.breadthFirst(ctx, k)
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	return toHits(hits.Sorted()), nil
}

type sieveEntry struct {
	id         int
	centerDist float64
	farthest   float64
}

func (qc *query[T]) breadthFirst(ctx context.Context, k int) (*queue.PriorityQueue, error) {
	t := qc.tree
	hits := queue.NewMax(k)
	push := func(idx int, d float64) {
		hits.PushBounded(queue.Item{ID: idx, Distance: d}, k)
	}

	root := t.Root()
	d := qc.distanceTo(root.Center)
	level := []sieveEntry{{id: 0, centerDist: d, farthest: bounds.Upper(d, root.Radius)}}
	var next []sieveEntry

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		threshold := qc.sieveThreshold(level, k, hits)
		next = next[:0]
		for _, e := range level {
			c := t.Cluster(e.id)
			if bounds.Lower(e.centerDist, c.Radius) > threshold {
				qc.stats.ClustersPruned++
				continue
			}
			qc.stats.ClustersVisited++

			if c.IsLeaf() || (len(next) <= k && c.Cardinality < k-len(next)) {
				qc.scan(c, e.centerDist, push)
				continue
			}
			for _, child := range [2]int{c.Left, c.Right} {
				cc := t.Cluster(child)
				cd := qc.distanceTo(cc.Center)
				next = append(next, sieveEntry{id: child, centerDist: cd, farthest: bounds.Upper(cd, cc.Radius)})
			}
		}
		level, next = next, level
	}
	return hits, nil
}

// sieveThreshold bounds the k-th nearest distance from above. level is
// sorted by (farthest, id) as a side effect.
func (qc *query[T]) sieveThreshold(level []sieveEntry, k int, hits *queue.PriorityQueue) float64 {
	threshold := math.Inf(1)
	if hits.Len() == k {
		worst, _ := hits.Top()
		threshold = worst.Distance
	}

	slices.SortFunc(level, func(a, b sieveEntry) int {
		return cmp.Or(cmp.Compare(a.farthest, b.farthest), cmp.Compare(a.id, b.id))
	})

	held := 0
	for _, e := range level {
		held += qc.tree.Cluster(e.id).Cardinality
		if held >= k {
			return min(threshold, e.farthest)
		}
	}
	return threshold
}
