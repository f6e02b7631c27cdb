package search

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/balltree/tree"
)

// BatchKNN runs one k-NN query per element of queries concurrently and
// returns the results in query order. WithAlgorithm selects the algorithm.
func BatchKNN[T any](ctx context.Context, t *tree.Tree[T], queries []T, k int, optFns ...Option) ([][]Hit, error) {
	opts := newOptions(optFns)
	return batch(ctx, opts, len(queries), func(ctx context.Context, i int, stats *Stats) ([]Hit, error) {
		return KNNWith(ctx, opts.algorithm, t, queries[i], k, WithStats(stats))
	})
}

// BatchWithin runs one WithinHits query per element of queries concurrently
// and returns the results in query order.
func BatchWithin[T any](ctx context.Context, t *tree.Tree[T], queries []T, radius float64, optFns ...Option) ([][]Hit, error) {
	opts := newOptions(optFns)
	return batch(ctx, opts, len(queries), func(ctx context.Context, i int, stats *Stats) ([]Hit, error) {
		return WithinHits(ctx, t, queries[i], radius, WithStats(stats))
	})
}

func batch(ctx context.Context, opts options, n int, run func(ctx context.Context, i int, stats *Stats) ([]Hit, error)) ([][]Hit, error) {
	results := make([][]Hit, n)

	var (
		mu    sync.Mutex
		total Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)
	for i := range n {
		g.Go(func() error {
			var stats Stats
			hits, err := run(gctx, i, &stats)
			if err != nil {
				return err
			}
			results[i] = hits

			mu.Lock()
			total.Add(stats)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.report(total)
	return results, nil
}
