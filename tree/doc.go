// Package tree builds and describes ball trees over a metric dataset.
//
// A tree is a hierarchy of clusters, each a metric ball around a real data
// point (its center) whose radius is the exact distance to the farthest item
// it owns. Every internal cluster has exactly two children whose position
// ranges partition the parent's range.
//
// Clusters live in a flat pre-order arena with the root at index 0. Items are
// addressed through a permutation: the positions [Offset, Offset+Cardinality)
// of a cluster map to original dataset indices via Permutation.
//
// # Construction
//
//	data, _ := dataset.New(points, distance.Euclidean)
//	t, err := tree.Build(ctx, data,
//	    tree.WithLeafSize(8),
//	    tree.WithSeed(42),
//	)
//
// Build is deterministic for a fixed dataset, metric, options and seed,
// independent of the number of workers.
//
// A Structure carries no items and can be persisted on its own; Attach binds
// a decoded Structure back to its dataset.
package tree
