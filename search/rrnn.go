package search

import (
	"context"
	"math"

	"github.com/hupe1980/balltree/bounds"
	"github.com/hupe1980/balltree/internal/queue"
	"github.com/hupe1980/balltree/tree"
)

const (
	minRadiusFactor = 1.1
	maxRadiusFactor = 2.0
	minLFD          = 1e-3
)

// candidate is a cluster that overlaps the current search ball.
type candidate struct {
	id         int
	centerDist float64
}

// KNNRepeatedRange returns the same result as KNN by running coarse ranged
// searches with a growing radius until at least k items are confirmed inside
// the ball, then ranking every item of the overlapping clusters.
//
// The initial radius scales the root radius by (k/n)^(1/LFD). After each pass
// the radius grows by (k/confirmed) raised to the mean inverse LFD of the
// overlapping clusters, bounded to [1.1, 2]; it doubles when nothing was
// confirmed.
func KNNRepeatedRange[T any](ctx context.Context, t *tree.Tree[T], q T, k int, optFns ...Option) ([]Hit, error) {
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
	hits, err := qc.repeatedRange(ctx, k)
	opts.report(qc.stats)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (qc *query[T]) repeatedRange(ctx context.Context, k int) ([]Hit, error) {
	t := qc.tree
	root := t.Root()
	d := qc.distanceTo(root.Center)
	memo := map[int]float64{0: d}

	// A NaN distance compares false against every radius, so no pass would
	// ever confirm an item.
	if root.Radius == 0 || math.IsNaN(d) {
		return qc.rank([]candidate{{id: 0, centerDist: d}}, k), nil
	}

	radius := root.Radius * math.Pow(float64(k)/float64(t.Len()), 1/max(root.LFD, 1))
	for {
		if math.IsNaN(radius) || math.IsInf(radius, 1) {
			return qc.rank([]candidate{{id: 0, centerDist: d}}, k), nil
		}

		confirmed, cands, invLFD, err := qc.coarse(ctx, radius, memo)
		if err != nil {
			return nil, err
		}
		if confirmed >= k {
			return qc.rank(cands, k), nil
		}

		factor := maxRadiusFactor
		if confirmed > 0 {
			factor = math.Pow(float64(k)/float64(confirmed), invLFD)
			factor = min(maxRadiusFactor, max(minRadiusFactor, factor))
		}
		radius *= factor
	}
}

// coarse collects the clusters overlapping the ball (q, radius) without
// scanning leaves. confirmed counts items known to lie inside the ball: all
// items of subsumed clusters plus the centers of straddling leaves.
func (qc *query[T]) coarse(ctx context.Context, radius float64, memo map[int]float64) (int, []candidate, float64, error) {
	t := qc.tree
	var (
		confirmed int
		cands     []candidate
		invSum    float64
	)

	stack := []int{0}
	for len(stack) > 0 {
		if qc.stats.ClustersVisited%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, nil, 0, err
			}
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := t.Cluster(id)
		qc.stats.ClustersVisited++

		d, ok := memo[id]
		if !ok {
			d = qc.distanceTo(c.Center)
			memo[id] = d
		}

		lower, upper := bounds.Of(d, c.Radius)
		switch {
		case lower > radius:
			qc.stats.ClustersPruned++
			continue
		case upper <= radius:
			confirmed += c.Cardinality
		case c.IsLeaf():
			if d <= radius {
				confirmed++
			}
		default:
			stack = append(stack, c.Right, c.Left)
			continue
		}
		cands = append(cands, candidate{id: id, centerDist: d})
		invSum += 1 / max(c.LFD, minLFD)
	}

	if len(cands) == 0 {
		return confirmed, nil, 1, nil
	}
	return confirmed, cands, invSum / float64(len(cands)), nil
}

// rank measures every item of the candidate clusters and keeps the best k.
func (qc *query[T]) rank(cands []candidate, k int) []Hit {
	hits := queue.NewMax(k)
	for _, cand := range cands {
		c := qc.tree.Cluster(cand.id)
		qc.scan(c, cand.centerDist, func(idx int, d float64) {
			hits.PushBounded(queue.Item{ID: idx, Distance: d}, k)
		})
	}
	return toHits(hits.Sorted())
}
