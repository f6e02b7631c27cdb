package main

import (
	"context"

	"github.com/hupe1980/balltree/persistence"
	"github.com/hupe1980/balltree/tree"
)

// readStructure decodes the tree at loc without attaching items.
func readStructure(ctx context.Context, loc location) (*tree.Structure, error) {
	if loc.store != nil {
		return persistence.Load(ctx, loc.store, loc.name)
	}
	return persistence.LoadFile(ctx, loc.path)
}
