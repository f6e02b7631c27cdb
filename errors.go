package balltree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/balltree/blobstore"
	"github.com/hupe1980/balltree/dataset"
	"github.com/hupe1980/balltree/distance"
	"github.com/hupe1980/balltree/persistence"
	"github.com/hupe1980/balltree/search"
	"github.com/hupe1980/balltree/tree"
)

var (
	// ErrInvalidArgument is the base error for rejected inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidRadius is returned for a negative or NaN search radius.
	ErrInvalidRadius = fmt.Errorf("%w: invalid radius", ErrInvalidArgument)
	// ErrInvalidK is returned for a negative k.
	ErrInvalidK = fmt.Errorf("%w: invalid k", ErrInvalidArgument)
	// ErrEmptyDataset is returned when building over no items.
	ErrEmptyDataset = fmt.Errorf("%w: empty dataset", ErrInvalidArgument)
	// ErrMetricMismatch is returned when a persisted tree was built under a
	// different metric than the one supplied on load.
	ErrMetricMismatch = fmt.Errorf("%w: metric mismatch", ErrInvalidArgument)

	// ErrResourceExhausted is returned when a build exceeds the memory limit.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrCorrupted is returned for persisted data that fails validation.
	ErrCorrupted = persistence.ErrCorrupted
	// ErrNotFound is returned when a blob or file does not exist.
	ErrNotFound = blobstore.ErrNotFound
	// ErrUnknownMetric is returned when a metric name cannot be resolved.
	ErrUnknownMetric = distance.ErrUnknownMetric
)

// ErrCardinalityMismatch indicates that a persisted tree indexes a different
// number of items than supplied on load.
//
// It matches ErrInvalidArgument.
type ErrCardinalityMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrCardinalityMismatch) Error() string {
	return fmt.Sprintf("cardinality mismatch: tree has %d items, got %d", e.Expected, e.Actual)
}

func (e *ErrCardinalityMismatch) Unwrap() error { return ErrInvalidArgument }

// translateError maps sub-package errors onto the root sentinels while
// keeping the original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, search.ErrInvalidRadius):
		return fmt.Errorf("%w: %w", ErrInvalidRadius, err)
	case errors.Is(err, search.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, dataset.ErrEmpty):
		return fmt.Errorf("%w: %w", ErrEmptyDataset, err)
	case errors.Is(err, search.ErrInvalidArgument),
		errors.Is(err, dataset.ErrInvalidArgument),
		errors.Is(err, tree.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, tree.ErrResourceExhausted):
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	return err
}
