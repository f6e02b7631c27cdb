// Package balltree indexes items of any type under a metric and answers
// exact ranged and k-nearest-neighbor queries.
//
// A ball tree recursively splits the items into two clusters around a pair of
// far-apart poles. Every cluster stores a center (a real item) and the exact
// radius of the ball that holds its items, so the triangle inequality bounds
// the distance from a query to anything inside. Searches skip whole clusters
// that cannot contain an answer and take clusters wholesale when every item is
// known to qualify.
//
// # Quick Start
//
//	points := [][]float64{{0, 0}, {1, 1}, {5, 5}}
//	idx, err := balltree.Build(ctx, points, distance.Euclidean,
//	    balltree.WithLeafSize(8),
//	)
//
//	hits, err := idx.KNN(ctx, []float64{0.9, 0.9}, 2)
//	for _, h := range hits {
//	    fmt.Println(h.Index, h.Distance)
//	}
//
//	inside, err := idx.Within(ctx, []float64{0, 0}, 1.5)
//
// The fluent builder is equivalent:
//
//	idx, err := balltree.New(distance.Euclidean).LeafSize(8).Seed(7).Build(ctx, points)
//
// # Metrics
//
// The metric must be symmetric, return zero for identical items and satisfy
// the triangle inequality. These properties are not checked; violating them
// degrades pruning and can produce wrong results. Squared Euclidean distance
// and cosine similarity are not metrics. Use distance.Euclidean and
// distance.Angular32.
//
// # Persistence
//
// Only the tree structure is persisted. Items stay with the caller and are
// reattached on load:
//
//	err = idx.SaveFile(ctx, "points.bt")
//	idx, err = balltree.LoadFile(ctx, "points.bt", points, distance.Euclidean)
//
// Blob stores (local, in-memory, S3, MinIO) are supported via Save and Load.
//
// # Concurrency
//
// An Index is immutable once built. Any number of goroutines may search it
// at the same time.
package balltree
