package tree

// Cluster is one metric ball in the tree.
type Cluster struct {
	// Offset is the first position owned by the cluster.
	Offset int
	// Cardinality is the number of owned items.
	Cardinality int
	// Center is the original index of the center item.
	Center int
	// Radius is the maximum distance from Center to any owned item.
	Radius float64
	// RadialSum is the sum of distances from Center to every owned item.
	RadialSum float64
	// LFD is the local fractal dimension estimated at Radius.
	LFD float64
	// Depth is 0 for the root.
	Depth int
	// Parent is the arena index of the parent, -1 for the root.
	Parent int
	// Left and Right are arena indices of the children, -1 for a leaf.
	Left  int
	Right int
}

// IsLeaf reports whether the cluster has no children.
func (c Cluster) IsLeaf() bool { return c.Left < 0 }

// IsSingleton reports whether all owned items are identical to the center.
func (c Cluster) IsSingleton() bool { return c.Cardinality == 1 || c.Radius == 0 }

// End returns one past the last owned position.
func (c Cluster) End() int { return c.Offset + c.Cardinality }

// MeanRadius returns the mean distance from the center to the owned items.
func (c Cluster) MeanRadius() float64 {
	if c.Cardinality == 0 {
		return 0
	}
	return c.RadialSum / float64(c.Cardinality)
}
