// Package search answers exact ranged and k-nearest-neighbor queries against
// a ball tree.
//
// All searches prune with triangle-inequality bounds (package bounds) and
// return original dataset indices. Results are exact: they match a linear
// scan, with ties in k-NN broken by ascending index.
//
// # Algorithms
//
//   - Within: depth-first ranged search. Clusters entirely outside the query
//     ball are pruned, clusters entirely inside are added without further
//     distance evaluations, leaves that straddle the boundary are scanned.
//   - KNN: best-first branch and bound over clusters ordered by lower bound.
//   - KNNRepeatedRange: repeated ranged searches with a radius grown from the
//     local fractal dimension until k items are confirmed.
//   - LinearKNN, LinearWithin: brute-force baselines.
//
// Searches never mutate the tree, so any number may run concurrently.
// BatchKNN and BatchWithin fan independent queries out over an errgroup.
package search
