package tree

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// ErrInvalidStructure is returned when an arena or permutation breaks a tree invariant.
var ErrInvalidStructure = errors.New("tree: invalid structure")

// BuildInfo records how a tree was built.
type BuildInfo struct {
	Metric   string
	LeafSize int
	MaxDepth int
	Seed     int64
	BuiltAt  time.Time
}

// Structure is the item-free part of a tree: the cluster arena, the
// permutation and the build parameters. It is immutable and safe for
// concurrent use.
type Structure struct {
	clusters    []Cluster
	permutation []int
	info        BuildInfo
}

// NewStructure validates clusters and permutation and wraps them.
// The slices are owned by the returned Structure.
func NewStructure(clusters []Cluster, permutation []int, info BuildInfo) (*Structure, error) {
	s := &Structure{clusters: clusters, permutation: permutation, info: info}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of items indexed by the tree.
func (s *Structure) Len() int { return len(s.permutation) }

// NumClusters returns the arena size.
func (s *Structure) NumClusters() int { return len(s.clusters) }

// Root returns the root cluster.
func (s *Structure) Root() Cluster { return s.clusters[0] }

// Cluster returns the cluster at arena index id.
func (s *Structure) Cluster(id int) Cluster { return s.clusters[id] }

// Clusters returns the pre-order arena. Callers must not modify it.
func (s *Structure) Clusters() []Cluster { return s.clusters }

// Permutation maps positions to original indices. Callers must not modify it.
func (s *Structure) Permutation() []int { return s.permutation }

// Positions returns the inverse permutation: original index to position.
func (s *Structure) Positions() []int {
	pos := make([]int, len(s.permutation))
	for p, i := range s.permutation {
		pos[i] = p
	}
	return pos
}

// Indices returns the original indices owned by c. Callers must not modify it.
func (s *Structure) Indices(c Cluster) []int {
	return s.permutation[c.Offset:c.End()]
}

// Info returns the build parameters.
func (s *Structure) Info() BuildInfo { return s.info }

// Leaves returns the arena indices of all leaves in pre-order.
func (s *Structure) Leaves() []int {
	var out []int
	for id, c := range s.clusters {
		if c.IsLeaf() {
			out = append(out, id)
		}
	}
	return out
}

// Depth returns the maximum cluster depth.
func (s *Structure) Depth() int {
	d := 0
	for _, c := range s.clusters {
		d = max(d, c.Depth)
	}
	return d
}

// Walk visits clusters in pre-order. Returning false from fn skips the
// cluster's descendants.
func (s *Structure) Walk(fn func(id int, c Cluster) bool) {
	stack := []int{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := s.clusters[id]
		if fn(id, c) && !c.IsLeaf() {
			stack = append(stack, c.Right, c.Left)
		}
	}
}

// Equal reports whether two structures have identical arenas, permutations
// and build parameters.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.clusters) != len(o.clusters) || len(s.permutation) != len(o.permutation) {
		return false
	}
	for i := range s.clusters {
		if s.clusters[i] != o.clusters[i] {
			return false
		}
	}
	for i := range s.permutation {
		if s.permutation[i] != o.permutation[i] {
			return false
		}
	}
	a, b := s.info, o.info
	return a.Metric == b.Metric && a.LeafSize == b.LeafSize && a.MaxDepth == b.MaxDepth &&
		a.Seed == b.Seed && a.BuiltAt.Equal(b.BuiltAt)
}

// Summary describes the shape of a tree.
type Summary struct {
	Items               int
	Clusters            int
	Leaves              int
	Depth               int
	RootRadius          float64
	MeanLeafCardinality float64
	// MeanLeafRadius averages the leaves' mean center-to-item distance.
	MeanLeafRadius float64
	MeanLFD        float64
}

// Summary computes shape statistics in one pass over the arena.
func (s *Structure) Summary() Summary {
	sum := Summary{
		Items:      s.Len(),
		Clusters:   len(s.clusters),
		RootRadius: s.clusters[0].Radius,
	}
	var lfdSum, radiusSum float64
	for _, c := range s.clusters {
		sum.Depth = max(sum.Depth, c.Depth)
		lfdSum += c.LFD
		if c.IsLeaf() {
			sum.Leaves++
			radiusSum += c.MeanRadius()
		}
	}
	sum.MeanLeafCardinality = float64(sum.Items) / float64(sum.Leaves)
	sum.MeanLeafRadius = radiusSum / float64(sum.Leaves)
	sum.MeanLFD = lfdSum / float64(len(s.clusters))
	return sum
}

// Validate checks every structural invariant: the permutation is a bijection,
// child ranges partition their parent's range, links are consistent, radii are
// non-negative and centers lie inside their clusters.
func (s *Structure) Validate() error {
	n := len(s.permutation)
	if n == 0 || len(s.clusters) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidStructure)
	}
	if len(s.clusters) > 2*n-1 {
		return fmt.Errorf("%w: %d clusters for %d items", ErrInvalidStructure, len(s.clusters), n)
	}

	seen := bitset.New(uint(n))
	for p, i := range s.permutation {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: permutation[%d] = %d out of range", ErrInvalidStructure, p, i)
		}
		if seen.Test(uint(i)) {
			return fmt.Errorf("%w: permutation repeats index %d", ErrInvalidStructure, i)
		}
		seen.Set(uint(i))
	}

	pos := s.Positions()

	root := s.clusters[0]
	if root.Offset != 0 || root.Cardinality != n || root.Parent != -1 || root.Depth != 0 {
		return fmt.Errorf("%w: root must span all %d items", ErrInvalidStructure, n)
	}

	reached := bitset.New(uint(len(s.clusters)))
	reached.Set(0)
	for id, c := range s.clusters {
		if err := s.validateCluster(id, c, pos); err != nil {
			return err
		}
		if c.IsLeaf() {
			continue
		}
		for _, child := range []int{c.Left, c.Right} {
			if reached.Test(uint(child)) {
				return fmt.Errorf("%w: cluster %d reached twice", ErrInvalidStructure, child)
			}
			reached.Set(uint(child))
		}
	}
	if reached.Count() != uint(len(s.clusters)) {
		return fmt.Errorf("%w: %d unreachable clusters", ErrInvalidStructure, uint(len(s.clusters))-reached.Count())
	}
	return nil
}

func (s *Structure) validateCluster(id int, c Cluster, pos []int) error {
	n := len(s.permutation)
	switch {
	case c.Cardinality < 1 || c.Offset < 0 || c.End() > n:
		return fmt.Errorf("%w: cluster %d range [%d, %d) outside [0, %d)", ErrInvalidStructure, id, c.Offset, c.End(), n)
	case math.IsNaN(c.Radius) || c.Radius < 0 || math.IsInf(c.Radius, 0):
		return fmt.Errorf("%w: cluster %d radius %v", ErrInvalidStructure, id, c.Radius)
	case math.IsNaN(c.LFD) || math.IsNaN(c.RadialSum) || c.RadialSum < 0:
		return fmt.Errorf("%w: cluster %d has NaN statistics", ErrInvalidStructure, id)
	case c.Center < 0 || c.Center >= n:
		return fmt.Errorf("%w: cluster %d center %d out of range", ErrInvalidStructure, id, c.Center)
	case pos[c.Center] < c.Offset || pos[c.Center] >= c.End():
		return fmt.Errorf("%w: cluster %d center %d outside its range", ErrInvalidStructure, id, c.Center)
	}

	if (c.Left < 0) != (c.Right < 0) {
		return fmt.Errorf("%w: cluster %d has exactly one child", ErrInvalidStructure, id)
	}
	if c.IsLeaf() {
		if c.Left != -1 || c.Right != -1 {
			return fmt.Errorf("%w: cluster %d has invalid child links", ErrInvalidStructure, id)
		}
		return nil
	}

	if c.Left <= id || c.Right <= id || c.Left >= len(s.clusters) || c.Right >= len(s.clusters) {
		return fmt.Errorf("%w: cluster %d children (%d, %d) not in pre-order", ErrInvalidStructure, id, c.Left, c.Right)
	}
	l, r := s.clusters[c.Left], s.clusters[c.Right]
	switch {
	case l.Parent != id || r.Parent != id:
		return fmt.Errorf("%w: cluster %d children do not point back", ErrInvalidStructure, id)
	case l.Depth != c.Depth+1 || r.Depth != c.Depth+1:
		return fmt.Errorf("%w: cluster %d children have wrong depth", ErrInvalidStructure, id)
	case l.Offset != c.Offset || r.Offset != l.End() || r.End() != c.End():
		return fmt.Errorf("%w: cluster %d children do not partition its range", ErrInvalidStructure, id)
	case l.Cardinality+r.Cardinality != c.Cardinality:
		return fmt.Errorf("%w: cluster %d cardinality mismatch", ErrInvalidStructure, id)
	}
	return nil
}
