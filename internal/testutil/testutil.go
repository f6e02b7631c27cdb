package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/balltree/distance"
)

// Neighbor is a brute-force search result.
type Neighbor struct {
	Index    int
	Distance float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Scalars generates num values in [0, scale).
func (r *RNG) Scalars(num int, scale float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, num)
	for i := range out {
		out[i] = r.rand.Float64() * scale
	}
	return out
}

// IntegerScalars generates num integer-valued floats in [0, max).
// Small ranges produce many duplicates and distance ties.
func (r *RNG) IntegerScalars(num, max int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, num)
	for i := range out {
		out[i] = float64(r.rand.Intn(max))
	}
	return out
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformVectors32 generates float32 vectors with values in range [-1, 1).
func (r *RNG) UniformVectors32(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// ClusteredVectors generates vectors with Gaussian noise around random
// centroids in [0, 10)^dim.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float64) [][]float64 {
	centroids := r.UniformVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	vectors := make([][]float64, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = 10*centroid[j] + r.rand.NormFloat64()*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// Strings generates num strings over alphabet with lengths in [minLen, maxLen].
func (r *RNG) Strings(num int, alphabet string, minLen, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	runes := []rune(alphabet)
	out := make([]string, num)
	for i := range out {
		n := minLen + r.rand.Intn(maxLen-minLen+1)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = runes[r.rand.Intn(len(runes))]
		}
		out[i] = string(buf)
	}
	return out
}

// Bytes generates num random byte slices of the given length.
func (r *RNG) Bytes(num, length int) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]byte, num)
	for i := range out {
		out[i] = make([]byte, length)
		_, _ = r.rand.Read(out[i])
	}
	return out
}

// BruteForceKNN returns the k nearest items ordered by (distance, index).
func BruteForceKNN[T any](items []T, query T, k int, metric distance.Metric[T]) []Neighbor {
	all := BruteForceAll(items, query, metric)
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// BruteForceWithin returns the indices of all items within radius, ascending.
func BruteForceWithin[T any](items []T, query T, radius float64, metric distance.Metric[T]) []int {
	out := []int{}
	for i, it := range items {
		if metric.Distance(query, it) <= radius {
			out = append(out, i)
		}
	}
	return out
}

// BruteForceAll returns every item ordered by (distance, index).
func BruteForceAll[T any](items []T, query T, metric distance.Metric[T]) []Neighbor {
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor{Index: i, Distance: metric.Distance(query, it)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// KthDistance returns the distance of the k-th nearest neighbor, or +Inf.
func KthDistance(neighbors []Neighbor, k int) float64 {
	if k <= 0 || k > len(neighbors) {
		return math.Inf(1)
	}
	return neighbors[k-1].Distance
}
