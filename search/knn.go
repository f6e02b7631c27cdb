package search

import (
	"context"

	"github.com/hupe1980/balltree/bounds"
	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

// KNN returns the k nearest items to q ordered by (distance, index).
// k == 0 returns an empty result and k larger than the tree is clamped.
//
// Clusters are expanded in order of their lower bound. A cluster is pruned
// only when its lower bound is strictly worse than the current k-th hit, so
// equidistant items with smaller indices still displace larger ones.
func KNN[T any](ctx context.Context, t *tree.Tree[T], q T, k int, optFns ...Option) ([]Hit, error) {
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
	hits, err := qc.bestFirst(ctx, k)
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	return toHits(hits.Sorted()), nil
}

func (qc *query[T]) bestFirst(ctx context.Context, k int) (*queue.PriorityQueue, error) {
	t := qc.tree
	hits := queue.NewMax(k)
	// Candidate clusters keyed on (lower bound, arena index); Aux holds the
	// center distance.
	candidates := queue.NewMin(64)

	root := t.Root()
	d := qc.distanceTo(root.Center)
	candidates.Push(queue.Item{ID: 0, Distance: bounds.Lower(d, root.Radius), Aux: d})

	full := func() (float64, bool) {
		if hits.Len() < k {
			return 0, false
		}
		worst, _ := hits.Top()
		return worst.Distance, true
	}

	for candidates.Len() > 0 {
		if qc.stats.ClustersVisited%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		head, _ := candidates.Pop()
		if worst, ok := full(); ok && head.Distance > worst {
			// Every remaining candidate is at least as far.
			qc.stats.ClustersPruned += int64(candidates.Len()) + 1
			break
		}

		c := t.Cluster(head.ID)
		qc.stats.ClustersVisited++

		if c.IsLeaf() {
			qc.scan(c, head.Aux, func(idx int, d float64) {
				hits.PushBounded(queue.Item{ID: idx, Distance: d}, k)
			})
			continue
		}

		for _, child := range [2]int{c.Left, c.Right} {
			cc := t.Cluster(child)
			cd := qc.distanceTo(cc.Center)
			lower := bounds.Lower(cd, cc.Radius)
			if worst, ok := full(); ok && lower > worst {
				qc.stats.ClustersPruned++
				continue
			}
			candidates.Push(queue.Item{ID: child, Distance: lower, Aux: cd})
		}
	}
	return hits, nil
}
