package search

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/balltree/dataset"
	"github.com/hupe1980/balltree/distance"
	"github.com/hupe1980/balltree/internal/testutil"
	"github.com/hupe1980/balltree/tree"
)

func build[T any](t testing.TB, items []T, metric distance.Metric[T], opts ...tree.BuildOption) *tree.Tree[T] {
	t.Helper()
	data, err := dataset.New(items, metric)
	require.NoError(t, err)
	tr, err := tree.Build(context.Background(), data, opts...)
	require.NoError(t, err)
	return tr
}

func toNeighborHits(ns []testutil.Neighbor) []Hit {
	out := make([]Hit, len(ns))
	for i, n := range ns {
		out[i] = Hit{Index: n.Index, Distance: n.Distance}
	}
	return out
}

var knnAlgorithms = []Algorithm{BestFirst, RepeatedRange, Linear, BreadthFirst}

func TestSixPointExample(t *testing.T) {
	items := []float64{0, 1, 2, 10, 11, 12}
	tr := build(t, items, distance.AbsoluteDifference, tree.WithLeafSize(2))

	got, err := Within(t.Context(), tr, 1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	for _, alg := range knnAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			hits, err := KNNWith(t.Context(), alg, tr, 10.5, 2)
			require.NoError(t, err)
			assert.Equal(t, []Hit{{Index: 3, Distance: 0.5}, {Index: 4, Distance: 0.5}}, hits)
		})
	}
}

func TestSingleItemTree(t *testing.T) {
	tr := build(t, []float64{7}, distance.AbsoluteDifference)

	got, err := Within(t.Context(), tr, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	got, err = Within(t.Context(), tr, 0, 6.9)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, alg := range knnAlgorithms {
		hits, err := KNNWith(t.Context(), alg, tr, 3, 5)
		require.NoError(t, err)
		assert.Equal(t, []Hit{{Index: 0, Distance: 4}}, hits, alg.String())
	}
}

func TestAllDuplicates(t *testing.T) {
	tr := build(t, []float64{2, 2, 2, 2}, distance.AbsoluteDifference)

	for _, alg := range knnAlgorithms {
		hits, err := KNNWith(t.Context(), alg, tr, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, []Hit{{0, 2}, {1, 2}, {2, 2}}, hits, alg.String())
	}

	got, err := Within(t.Context(), tr, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestKNN_MatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(42)

	t.Run("Vectors", func(t *testing.T) {
		points := rng.ClusteredVectors(1500, 4, 6, 0.3)
		queries := rng.UniformVectors(20, 4)
		for _, q := range queries {
			for i := range q {
				q[i] *= 10
			}
		}
		for _, leaf := range []int{1, 7} {
			tr := build(t, points, distance.Euclidean, tree.WithLeafSize(leaf), tree.WithParallelThreshold(128))
			for _, q := range queries {
				for _, k := range []int{1, 5, 32} {
					want := toNeighborHits(testutil.BruteForceKNN(points, q, k, distance.Euclidean))
					for _, alg := range knnAlgorithms {
						got, err := KNNWith(t.Context(), alg, tr, q, k)
						require.NoError(t, err)
						require.Equal(t, want, got, "alg=%s leaf=%d k=%d", alg, leaf, k)
					}
				}
			}
		}
	})

	t.Run("TiedScalars", func(t *testing.T) {
		items := rng.IntegerScalars(800, 40)
		tr := build(t, items, distance.AbsoluteDifference, tree.WithLeafSize(3))
		for q := -3.0; q < 45; q += 2.5 {
			for _, k := range []int{1, 2, 17, 100, 799} {
				want := toNeighborHits(testutil.BruteForceKNN(items, q, k, distance.AbsoluteDifference))
				for _, alg := range knnAlgorithms {
					got, err := KNNWith(t.Context(), alg, tr, q, k)
					require.NoError(t, err)
					require.Equal(t, want, got, "alg=%s q=%v k=%d", alg, q, k)
				}
			}
		}
	})

	t.Run("Strings", func(t *testing.T) {
		words := rng.Strings(400, "abcd", 2, 8)
		queries := rng.Strings(10, "abcd", 2, 8)
		tr := build(t, words, distance.Levenshtein, tree.WithLeafSize(4))
		for _, q := range queries {
			for _, k := range []int{1, 10} {
				want := toNeighborHits(testutil.BruteForceKNN(words, q, k, distance.Levenshtein))
				for _, alg := range knnAlgorithms {
					got, err := KNNWith(t.Context(), alg, tr, q, k)
					require.NoError(t, err)
					require.Equal(t, want, got, "alg=%s q=%s k=%d", alg, q, k)
				}
			}
		}
	})
}

func TestWithin_MatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(7)

	t.Run("Vectors", func(t *testing.T) {
		points := rng.UniformVectors(1200, 3)
		queries := rng.UniformVectors(15, 3)
		tr := build(t, points, distance.Euclidean, tree.WithLeafSize(5))
		for _, q := range queries {
			for _, r := range []float64{0, 0.05, 0.2, 0.5, 2} {
				want := testutil.BruteForceWithin(points, q, r, distance.Euclidean)
				got, err := Within(t.Context(), tr, q, r)
				require.NoError(t, err)
				require.Equal(t, want, got, "r=%v", r)

				hits, err := WithinHits(t.Context(), tr, q, r)
				require.NoError(t, err)
				linear, err := LinearWithin(t.Context(), tr, q, r)
				require.NoError(t, err)
				require.Equal(t, linear, hits)
			}
		}
	})

	t.Run("TiedScalars", func(t *testing.T) {
		items := rng.IntegerScalars(500, 30)
		tr := build(t, items, distance.AbsoluteDifference)
		for q := -2.0; q <= 32; q++ {
			for _, r := range []float64{0, 1, 3, 10} {
				want := testutil.BruteForceWithin(items, q, r, distance.AbsoluteDifference)
				got, err := Within(t.Context(), tr, q, r)
				require.NoError(t, err)
				require.Equal(t, want, got, "q=%v r=%v", q, r)
			}
		}
	})
}

func TestWithinSet(t *testing.T) {
	items := []float64{0, 1, 2, 10, 11, 12}
	tr := build(t, items, distance.AbsoluteDifference, tree.WithLeafSize(2))

	set, err := WithinSet(t.Context(), tr, 11, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), set.GetCardinality())
	assert.True(t, set.Contains(3))
	assert.False(t, set.Contains(2))
}

func TestStats(t *testing.T) {
	points := testutil.NewRNG(3).UniformVectors(1000, 2)
	tr := build(t, points, distance.Euclidean, tree.WithLeafSize(4))

	t.Run("Subsumed", func(t *testing.T) {
		var stats Stats
		got, err := Within(t.Context(), tr, []float64{0.5, 0.5}, 100, WithStats(&stats))
		require.NoError(t, err)
		assert.Len(t, got, 1000)
		assert.Equal(t, int64(1), stats.DistanceEvaluations)
		assert.Equal(t, int64(1), stats.ClustersVisited)
	})

	t.Run("Pruned", func(t *testing.T) {
		var stats Stats
		got, err := Within(t.Context(), tr, []float64{50, 50}, 1, WithStats(&stats))
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, int64(1), stats.DistanceEvaluations)
		assert.Equal(t, int64(1), stats.ClustersPruned)
	})

	t.Run("KNNBeatsLinear", func(t *testing.T) {
		var indexed, linear Stats
		_, err := KNN(t.Context(), tr, []float64{0.3, 0.7}, 5, WithStats(&indexed))
		require.NoError(t, err)
		_, err = LinearKNN(t.Context(), tr, []float64{0.3, 0.7}, 5, WithStats(&linear))
		require.NoError(t, err)
		assert.Equal(t, int64(1000), linear.DistanceEvaluations)
		assert.Less(t, indexed.DistanceEvaluations, linear.DistanceEvaluations)
		assert.Positive(t, indexed.ClustersPruned)
	})
}

func TestArguments(t *testing.T) {
	tr := build(t, []float64{0, 1, 2}, distance.AbsoluteDifference)

	_, err := Within(t.Context(), tr, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidRadius)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = WithinHits(t.Context(), tr, 0, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidRadius)

	for _, alg := range knnAlgorithms {
		_, err = KNNWith(t.Context(), alg, tr, 0, -1)
		assert.ErrorIs(t, err, ErrInvalidK)

		hits, err := KNNWith(t.Context(), alg, tr, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = KNNWith(t.Context(), alg, tr, 0, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	}

	_, err = KNN[float64](t.Context(), nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = KNNWith(t.Context(), Algorithm(9), tr, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCanceled(t *testing.T) {
	tr := build(t, testutil.NewRNG(1).UniformVectors(200, 2), distance.Euclidean)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	q := []float64{0.5, 0.5}
	_, err := Within(ctx, tr, q, 0.1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = KNN(ctx, tr, q, 3)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = KNNRepeatedRange(ctx, tr, q, 3)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = LinearKNN(ctx, tr, q, 3)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = KNNBreadthFirst(ctx, tr, q, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKNN_NaNQuery(t *testing.T) {
	tr := build(t, []float64{0, 1, 2, 10, 11, 12}, distance.AbsoluteDifference, tree.WithLeafSize(2))

	for _, alg := range knnAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			hits, err := KNNWith(ctx, alg, tr, math.NaN(), 2)
			require.NoError(t, err)
			assert.Len(t, hits, 2)
		})
	}
}

func TestBreadthFirst_Prunes(t *testing.T) {
	points := testutil.NewRNG(5).UniformVectors(2000, 2)
	tr := build(t, points, distance.Euclidean, tree.WithLeafSize(4))
	q := []float64{0.25, 0.75}

	var sieve, linear Stats
	got, err := KNNBreadthFirst(t.Context(), tr, q, 10, WithStats(&sieve))
	require.NoError(t, err)
	want, err := LinearKNN(t.Context(), tr, q, 10, WithStats(&linear))
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Positive(t, sieve.ClustersPruned)
	assert.Less(t, sieve.DistanceEvaluations, linear.DistanceEvaluations)
}

func TestBatch(t *testing.T) {
	rng := testutil.NewRNG(11)
	points := rng.UniformVectors(600, 3)
	queries := rng.UniformVectors(25, 3)
	tr := build(t, points, distance.Euclidean, tree.WithLeafSize(4))

	var stats Stats
	got, err := BatchKNN(t.Context(), tr, queries, 4, WithWorkers(4), WithAlgorithm(RepeatedRange), WithStats(&stats))
	require.NoError(t, err)
	require.Len(t, got, len(queries))
	for i, q := range queries {
		want, err := LinearKNN(t.Context(), tr, q, 4)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
	assert.Positive(t, stats.DistanceEvaluations)

	within, err := BatchWithin(t.Context(), tr, queries, 0.2)
	require.NoError(t, err)
	for i, q := range queries {
		want, err := LinearWithin(t.Context(), tr, q, 0.2)
		require.NoError(t, err)
		assert.Equal(t, want, within[i])
	}

	_, err = BatchKNN(t.Context(), tr, queries, -1)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestConcurrentSearches(t *testing.T) {
	rng := testutil.NewRNG(5)
	points := rng.UniformVectors(800, 2)
	tr := build(t, points, distance.Euclidean)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := []float64{float64(g) / 8, 0.5}
			want := toNeighborHits(testutil.BruteForceKNN(points, q, 6, distance.Euclidean))
			for range 20 {
				got, err := KNN(context.Background(), tr, q, 6)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range knnAlgorithms {
		got, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, got)
	}
	got, err := ParseAlgorithm("RRNN")
	require.NoError(t, err)
	assert.Equal(t, RepeatedRange, got)

	got, err = ParseAlgorithm("bfs")
	require.NoError(t, err)
	assert.Equal(t, BreadthFirst, got)

	_, err = ParseAlgorithm("annoy")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "Unknown(9)", Algorithm(9).String())
}

func BenchmarkKNN(b *testing.B) {
	rng := testutil.NewRNG(1)
	points := rng.UniformVectors(20_000, 8)
	tr := build(b, points, distance.Euclidean, tree.WithLeafSize(8))
	q := rng.UniformVectors(1, 8)[0]

	for _, alg := range knnAlgorithms {
		b.Run(alg.String(), func(b *testing.B) {
			for b.Loop() {
				_, _ = KNNWith(context.Background(), alg, tr, q, 10)
			}
		})
	}
}

func TestLeafScansBatched(t *testing.T) {
	rng := testutil.NewRNG(21)
	points := rng.UniformVectors(1200, 3)
	data, err := dataset.New(points, distance.Euclidean, dataset.WithWorkers(4), dataset.WithParallelThreshold(8))
	require.NoError(t, err)
	tr, err := tree.Build(t.Context(), data, tree.WithLeafSize(64))
	require.NoError(t, err)

	for _, q := range rng.UniformVectors(5, 3) {
		want := toNeighborHits(testutil.BruteForceKNN(points, q, 9, distance.Euclidean))
		for _, alg := range knnAlgorithms {
			got, err := KNNWith(t.Context(), alg, tr, q, 9)
			require.NoError(t, err)
			require.Equal(t, want, got, alg.String())
		}

		hits, err := WithinHits(t.Context(), tr, q, 0.3)
		require.NoError(t, err)
		linear, err := LinearWithin(t.Context(), tr, q, 0.3)
		require.NoError(t, err)
		assert.Equal(t, linear, hits)
	}
}
