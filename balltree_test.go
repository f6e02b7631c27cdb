package balltree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/hupe1980/balltree/distance"
	"github.com/hupe1980/balltree/internal/testutil"
	"github.com/hupe1980/balltree/search"
)

var sixPoints = []float64{0, 1, 2, 10, 11, 12}

func TestSixPoints(t *testing.T) {
	ctx := t.Context()
	idx, err := Build(ctx, sixPoints, distance.AbsoluteDifference, WithLeafSize(2))
	require.NoError(t, err)
	assert.Equal(t, 6, idx.Len())

	within, err := idx.Within(ctx, 1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, within)

	hits, err := idx.WithinHits(ctx, 1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []Hit{{Index: 1, Distance: 0}, {Index: 0, Distance: 1}, {Index: 2, Distance: 1}}, hits)

	knn, err := idx.KNN(ctx, 10.5, 2)
	require.NoError(t, err)
	assert.Equal(t, []Hit{{Index: 3, Distance: 0.5}, {Index: 4, Distance: 0.5}}, knn)

	sum := idx.Stats()
	assert.Equal(t, 6, sum.Items)
	assert.Equal(t, 10.0, sum.RootRadius)
	assert.Same(t, idx.Tree(), idx.tree)
}

func TestAlgorithmsAgree(t *testing.T) {
	ctx := t.Context()
	rng := testutil.NewRNG(11)
	points := rng.ClusteredVectors(400, 3, 5, 0.5)
	queries := rng.UniformVectors(20, 3)

	idx, err := New(distance.Euclidean).LeafSize(4).Seed(5).Build(ctx, points)
	require.NoError(t, err)

	for _, q := range queries {
		want := testutil.BruteForceKNN(points, q, 7, distance.Euclidean)
		for _, alg := range []Algorithm{BestFirst, RepeatedRange, Linear, BreadthFirst} {
			var stats SearchStats
			got, err := idx.KNN(ctx, q, 7, WithAlgorithm(alg), WithStats(&stats))
			require.NoError(t, err)
			require.Len(t, got, 7)
			for i := range want {
				assert.Equal(t, want[i].Index, got[i].Index, alg.String())
				assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-12)
			}
			assert.Positive(t, stats.DistanceEvaluations)
		}
	}

	batch, err := idx.BatchKNN(ctx, queries, 3)
	require.NoError(t, err)
	require.Len(t, batch, len(queries))
	for i, q := range queries {
		single, err := idx.KNN(ctx, q, 3)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}

	ranged, err := idx.BatchWithin(ctx, queries, 0.75)
	require.NoError(t, err)
	for i, q := range queries {
		want := testutil.BruteForceWithin(points, q, 0.75, distance.Euclidean)
		got := make([]int, len(ranged[i]))
		for j, h := range ranged[i] {
			got[j] = h.Index
		}
		assert.ElementsMatch(t, want, got)
	}
}

func TestErrors(t *testing.T) {
	ctx := t.Context()

	_, err := Build(ctx, []float64{}, distance.AbsoluteDifference)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Build(ctx, sixPoints, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Build(ctx, sixPoints, distance.AbsoluteDifference, WithLeafSize(0))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Build(ctx, sixPoints, distance.AbsoluteDifference, WithMemoryLimit(1))
	assert.ErrorIs(t, err, ErrResourceExhausted)

	idx, err := Build(ctx, sixPoints, distance.AbsoluteDifference)
	require.NoError(t, err)

	_, err = idx.KNN(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidK)
	assert.ErrorIs(t, err, search.ErrInvalidK)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = idx.Within(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = idx.KNN(ctx, 1, 2, WithAlgorithm(Algorithm(42)))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	hits, err := idx.KNN(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.KNN(ctx, 1, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 6)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("other")
	assert.Equal(t, other, translateError(other))

	err := translateError(search.ErrInvalidRadius)
	assert.ErrorIs(t, err, ErrInvalidRadius)
	assert.ErrorIs(t, err, search.ErrInvalidRadius)
}

func TestWriteToReadFrom(t *testing.T) {
	ctx := t.Context()
	words := testutil.NewRNG(3).Strings(150, "abcd", 1, 8)

	idx, err := New(distance.Levenshtein).LeafSize(3).Compression(CompressionZSTD).Build(ctx, words)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := idx.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := ReadFrom(&buf, words, distance.Levenshtein)
	require.NoError(t, err)
	assert.True(t, idx.Tree().Equal(loaded.Tree().Structure))

	want, err := idx.KNN(ctx, "abc", 5)
	require.NoError(t, err)
	got, err := loaded.KNN(ctx, "abc", 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLoad(t *testing.T) {
	ctx := t.Context()
	points := testutil.NewRNG(5).UniformVectors(200, 2)

	metrics := &BasicMetricsCollector{}
	b := New(distance.Euclidean).LeafSize(4).Metrics(metrics).IOLimit(64 << 20).Compression(CompressionLZ4)
	idx, err := b.Build(ctx, points)
	require.NoError(t, err)

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "points.bt")
		require.NoError(t, idx.SaveFile(ctx, path))

		loaded, err := b.LoadFile(ctx, path, points)
		require.NoError(t, err)
		assert.True(t, idx.Tree().Equal(loaded.Tree().Structure))

		_, err = LoadFile(ctx, filepath.Join(t.TempDir(), "missing.bt"), points, distance.Euclidean)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("store", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, idx.Save(ctx, store, "points.bt"))

		loaded, err := b.Load(ctx, store, "points.bt", points)
		require.NoError(t, err)
		assert.True(t, idx.Tree().Equal(loaded.Tree().Structure))

		_, err = Load(ctx, store, "missing.bt", points, distance.Euclidean)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cardinality mismatch", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, idx.Save(ctx, store, "points.bt"))

		_, err := Load(ctx, store, "points.bt", points[:10], distance.Euclidean)
		var mismatch *ErrCardinalityMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 200, mismatch.Expected)
		assert.Equal(t, 10, mismatch.Actual)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("metric mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := idx.WriteTo(&buf)
		require.NoError(t, err)

		_, err = ReadFrom(&buf, points, distance.Manhattan)
		assert.ErrorIs(t, err, ErrMetricMismatch)
	})

	t.Run("corrupted", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := idx.WriteTo(&buf)
		require.NoError(t, err)
		data := buf.Bytes()
		data[len(data)/2] ^= 0xff

		_, err = ReadFrom(bytes.NewReader(data), points, distance.Euclidean)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(200), stats.BuildItems)
	assert.Equal(t, int64(5), stats.SaveCount)
	assert.Equal(t, int64(2), stats.LoadCount)
}

func TestBuilderIsImmutable(t *testing.T) {
	base := New(distance.AbsoluteDifference).LeafSize(2)
	a := base.Seed(1)
	b := base.Seed(2).Workers(1)

	assert.Len(t, base.opts, 1)
	assert.Len(t, a.opts, 2)
	assert.Len(t, b.opts, 3)
	assert.Equal(t, int64(1), newOptions(a.opts).seed)
	assert.Equal(t, int64(2), newOptions(b.opts).seed)
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	ctx := t.Context()
	points := testutil.NewRNG(9).UniformVectors(3000, 4)

	serial, err := Build(ctx, points, distance.Euclidean, WithWorkers(1), WithSeed(77))
	require.NoError(t, err)
	parallel, err := Build(ctx, points, distance.Euclidean, WithWorkers(8), WithParallelThreshold(64), WithSeed(77))
	require.NoError(t, err)

	assert.Equal(t, serial.Tree().Permutation(), parallel.Tree().Permutation())
	assert.Equal(t, serial.Tree().Clusters(), parallel.Tree().Clusters())
}

func TestLogging(t *testing.T) {
	ctx := t.Context()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	idx, err := Build(ctx, sixPoints, distance.AbsoluteDifference, WithLogger(logger.WithMetric("abs")))
	require.NoError(t, err)
	_, err = idx.KNN(ctx, 3, 1)
	require.NoError(t, err)
	_, err = idx.Within(ctx, 3, -1)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"build completed"`)
	assert.Contains(t, out, `"metric":"abs"`)
	assert.Contains(t, out, `"msg":"search completed"`)
	assert.Contains(t, out, `"msg":"search failed"`)
}

func TestNilLoggerAndMetrics(t *testing.T) {
	idx, err := Build(context.Background(), sixPoints, distance.AbsoluteDifference, WithLogger(nil), WithMetricsCollector(nil))
	require.NoError(t, err)
	_, err = idx.KNN(context.Background(), 0, 1)
	require.NoError(t, err)
	NoopLogger().LogBuild(context.Background(), 1, 1, 0, nil)
}
