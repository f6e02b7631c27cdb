package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorMetrics(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, -4}

	tests := []struct {
		name     string
		metric   Metric[[]float64]
		expected float64
	}{
		{"Euclidean", Euclidean, 5},
		{"Manhattan", Manhattan, 7},
		{"Chebyshev", Chebyshev, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.metric.Distance(a, b), 1e-12)
			assert.InDelta(t, tt.expected, tt.metric.Distance(b, a), 1e-12)
			assert.Zero(t, tt.metric.Distance(b, b))
		})
	}
}

func TestVector32Metrics(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 6, 3}

	assert.InDelta(t, 5, Euclidean32.Distance(a, b), 1e-5)
	assert.InDelta(t, 7, Manhattan32.Distance(a, b), 1e-5)
	assert.InDelta(t, 0, Euclidean32.Distance(a, a), 1e-6)
}

func TestAngular32(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"Same", []float32{1, 0}, []float32{2, 0}, 0},
		{"Orthogonal", []float32{1, 0}, []float32{0, 3}, 0.5},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, 1},
		{"BothZero", []float32{0, 0}, []float32{0, 0}, 0},
		{"OneZero", []float32{0, 0}, []float32{1, 1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Angular32.Distance(tt.a, tt.b), 1e-6)
		})
	}
}

func TestAbsoluteDifference(t *testing.T) {
	assert.Equal(t, 1.5, AbsoluteDifference.Distance(1, 2.5))
	assert.Equal(t, 1.5, AbsoluteDifference.Distance(2.5, 1))
	assert.Equal(t, "absolute-difference", AbsoluteDifference.Name())
}

func TestHamming(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []byte
		expected float64
	}{
		{"Simple", []byte{0xFF, 0x00}, []byte{0x00, 0xFF}, 16},
		{"Identical", []byte{0xAA, 0x55}, []byte{0xAA, 0x55}, 0},
		{"Partial", []byte{0b11110000}, []byte{0b11111111}, 4},
		{"Empty", []byte{}, []byte{}, 0},
		{"Uneven", []byte{0x01}, []byte{0x01, 0x00}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Hamming.Distance(tt.a, tt.b))
			assert.Equal(t, tt.expected, Hamming.Distance(tt.b, tt.a))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"héllo", "hello", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein.Distance(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein.Distance(tt.b, tt.a))
		})
	}
}

func TestTriangleInequality(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 5}, {-3, 2}, {7, 7}, {0.5, -1}}
	for _, m := range []Metric[[]float64]{Euclidean, Manhattan, Chebyshev} {
		for _, a := range pts {
			for _, b := range pts {
				for _, c := range pts {
					assert.LessOrEqual(t, m.Distance(a, c), m.Distance(a, b)+m.Distance(b, c)+1e-9, m.Name())
				}
			}
		}
	}

	words := []string{"", "a", "ab", "ba", "abc", "xyz", "abcd"}
	for _, a := range words {
		for _, b := range words {
			for _, c := range words {
				assert.LessOrEqual(t, Levenshtein.Distance(a, c), Levenshtein.Distance(a, b)+Levenshtein.Distance(b, c))
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	m, err := VectorMetric("Euclidean")
	require.NoError(t, err)
	assert.Equal(t, NameEuclidean, m.Name())

	m, err = VectorMetric(" l1 ")
	require.NoError(t, err)
	assert.Equal(t, NameManhattan, m.Name())

	m32, err := Vector32Metric("angular")
	require.NoError(t, err)
	assert.Equal(t, NameAngular, m32.Name())

	s, err := StringMetric("levenshtein")
	require.NoError(t, err)
	assert.Equal(t, NameLevenshtein, s.Name())
	assert.True(t, IsStringMetric("LEVENSHTEIN"))
	assert.False(t, IsStringMetric("euclidean"))

	_, err = VectorMetric("cosine")
	require.ErrorIs(t, err, ErrUnknownMetric)

	assert.Contains(t, VectorMetricNames(), "chebyshev")
}

func TestNewAndCounting(t *testing.T) {
	m := New("len-diff", func(a, b string) float64 {
		return math.Abs(float64(len(a) - len(b)))
	})
	c := &Counting[string]{Metric: m}
	assert.Equal(t, 2.0, c.Distance("a", "abc"))
	assert.Equal(t, 0.0, c.Distance("x", "y"))
	assert.Equal(t, int64(2), c.Calls)
	assert.Equal(t, "len-diff", c.Name())
}
