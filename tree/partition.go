package tree

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/balltree/dataset"
	"github.com/hupe1980/balltree/internal/resource"
)

const (
	minCenterSamples = 100
	sqrtThreshold    = 10_000
)

type partitioner[T any] struct {
	data     *dataset.Dataset[T]
	perm     []int
	opts     buildOptions
	ctrl     *resource.Controller
	parallel bool
}

// partition builds the subtree over positions [lo, hi). It only ever writes
// perm[lo:hi], so sibling calls can run concurrently.
func (p *partitioner[T]) partition(ctx context.Context, lo, hi, depth int) (*node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions := p.perm[lo:hi]
	n := len(positions)
	nd := &node{cluster: Cluster{Offset: lo, Cardinality: n, Depth: depth}}

	if n == 1 {
		nd.cluster.Center = positions[0]
		nd.cluster.LFD = 1
		return nd, nil
	}

	center := p.center(positions, lo, depth)

	dists := make([]float64, n)
	p.data.DistancesOneToMany(center, positions, dists)
	far := argmax(dists)

	radius := dists[far]
	var radialSum float64
	for _, d := range dists {
		radialSum += d
	}

	nd.cluster.Center = center
	nd.cluster.Radius = radius
	nd.cluster.RadialSum = radialSum
	nd.cluster.LFD = lfd(dists, radius)

	if n <= p.opts.leafSize || radius == 0 || (p.opts.maxDepth > 0 && depth >= p.opts.maxDepth) {
		return nd, nil
	}

	mid := lo + p.split(positions, positions[far], dists)

	var err error
	if p.parallel && n >= p.opts.parallelThreshold && p.ctrl.TryAcquireWorker() {
		nd.left, nd.right, err = p.fork(ctx, lo, mid, hi, depth+1)
	} else {
		if nd.left, err = p.partition(ctx, lo, mid, depth+1); err == nil {
			nd.right, err = p.partition(ctx, mid, hi, depth+1)
		}
	}
	if err != nil {
		return nil, err
	}
	return nd, nil
}

// fork builds the left half on a new goroutine holding the acquired worker
// slot and the right half inline.
func (p *partitioner[T]) fork(ctx context.Context, lo, mid, hi, depth int) (*node, *node, error) {
	g, gctx := errgroup.WithContext(ctx)

	var left *node
	g.Go(func() error {
		defer p.ctrl.ReleaseWorker()
		var err error
		left, err = p.partition(gctx, lo, mid, depth)
		return err
	})

	right, rerr := p.partition(gctx, mid, hi, depth)
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if rerr != nil {
		return nil, nil, rerr
	}
	return left, right, nil
}

// center returns the original index of the geometric median of a sample of
// positions: the sampled item minimizing the sum of distances to the rest of
// the sample. Ties go to the lowest position.
func (p *partitioner[T]) center(positions []int, offset, depth int) int {
	n := len(positions)
	sample := positions
	if s := numSamples(n, minCenterSamples, sqrtThreshold); s < n {
		rng := p.opts.newRand(nodeSeed(p.opts.seed, offset, depth))
		picks := rng.Perm(n)[:s]
		slices.Sort(picks)
		sample = make([]int, s)
		for i, pick := range picks {
			sample[i] = positions[pick]
		}
	}

	sums := make([]float64, len(sample))
	for i := range sample {
		for j := i + 1; j < len(sample); j++ {
			d := p.data.Distance(sample[i], sample[j])
			sums[i] += d
			sums[j] += d
		}
	}
	return sample[argmin(sums)]
}

// split reorders positions in place so that items closer to (or equidistant
// from) pole A come first, and returns the size of the A side. scratch holds
// center distances on entry and is reused.
func (p *partitioner[T]) split(positions []int, poleA int, scratch []float64) int {
	n := len(positions)

	toA := make([]float64, n)
	p.data.DistancesOneToMany(poleA, positions, toA)
	poleB := positions[argmax(toA)]

	toB := scratch
	p.data.DistancesOneToMany(poleB, positions, toB)

	aSide := make([]int, 0, n)
	bSide := make([]int, 0, n/2)
	for i, idx := range positions {
		if toA[i] <= toB[i] {
			aSide = append(aSide, idx)
		} else {
			bSide = append(bSide, idx)
		}
	}

	if len(aSide) == 0 || len(bSide) == 0 {
		return medianSplit(positions, toA, toB)
	}

	copy(positions, aSide)
	copy(positions[len(aSide):], bSide)
	return len(aSide)
}

// medianSplit orders positions by d(A) - d(B), ties by position, and cuts at
// the middle. Only reachable under metrics that violate identity.
func medianSplit(positions []int, toA, toB []float64) int {
	n := len(positions)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return cmp.Compare(toA[x]-toB[x], toA[y]-toB[y])
	})

	reordered := make([]int, n)
	for i, o := range order {
		reordered[i] = positions[o]
	}
	copy(positions, reordered)
	return n / 2
}

// nodeSeed derives a per-cluster seed so that sampling does not depend on
// the order in which subtrees are built.
func nodeSeed(seed int64, offset, depth int) int64 {
	x := uint64(seed) ^ (uint64(offset) * 0x9E3779B97F4A7C15) ^ (uint64(depth) << 48)
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return int64(x)
}

// argmax returns the index of the largest value, the lowest on ties.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// argmin returns the index of the smallest value, the lowest on ties.
func argmin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}
