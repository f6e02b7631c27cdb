package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/balltree/dataset"
)

// ErrCardinalityMismatch is returned by Attach when the dataset size differs
// from the structure's item count.
var ErrCardinalityMismatch = errors.New("tree: cardinality mismatch")

// Tree is a Structure bound to the dataset it was built over.
type Tree[T any] struct {
	*Structure
	data *dataset.Dataset[T]
}

// Attach binds a decoded structure to its dataset.
func Attach[T any](s *Structure, data *dataset.Dataset[T]) (*Tree[T], error) {
	if s == nil || data == nil {
		return nil, fmt.Errorf("%w: nil structure or dataset", ErrInvalidArgument)
	}
	if s.Len() != data.Len() {
		return nil, fmt.Errorf("%w: structure has %d items, dataset has %d", ErrCardinalityMismatch, s.Len(), data.Len())
	}
	return &Tree[T]{Structure: s, data: data}, nil
}

// Dataset returns the items the tree indexes.
func (t *Tree[T]) Dataset() *dataset.Dataset[T] { return t.data }

// VerifyRadii recomputes every cluster radius from the data and reports the
// first cluster whose stored radius is not the exact maximum center distance.
func (t *Tree[T]) VerifyRadii(ctx context.Context) error {
	buf := make([]float64, t.Len())
	for id, c := range t.clusters {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := t.Indices(c)
		dists := buf[:len(idx)]
		t.data.DistancesOneToMany(c.Center, idx, dists)
		radius := 0.0
		for _, d := range dists {
			radius = max(radius, d)
		}
		if radius != c.Radius {
			return fmt.Errorf("%w: cluster %d radius %v, recomputed %v", ErrInvalidStructure, id, c.Radius, radius)
		}
	}
	return nil
}
