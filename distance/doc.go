// Package distance provides the metric capability used to build and search
// ball trees, together with a small set of built-in metrics.
//
// A Metric must be a true metric: non-negative, symmetric, zero on identical
// items and subadditive (triangle inequality). Pruning in the tree searches is
// only sound under these properties. They are documented, not verified.
//
// # Built-in Metrics
//
//   - AbsoluteDifference: |a - b| on float64
//   - Euclidean, Manhattan, Chebyshev: L2, L1 and L∞ on []float64 (gonum)
//   - Euclidean32, Manhattan32, Angular32: L2, L1 and angle on []float32 (vek32)
//   - Hamming: differing bits on []byte
//   - Levenshtein: edit distance on string
//
// Squared L2 and cosine similarity are intentionally not provided because
// neither satisfies the triangle inequality. Use Euclidean and Angular32.
//
// # Usage
//
//	m, err := distance.VectorMetric("euclidean")
//	d := m.Distance([]float64{0, 0}, []float64{3, 4}) // 5
package distance
