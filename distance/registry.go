package distance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownMetric is returned when a metric name cannot be resolved.
var ErrUnknownMetric = errors.New("distance: unknown metric")

var (
	vectorMetrics = map[string]Metric[[]float64]{
		NameEuclidean: Euclidean,
		"l2":          Euclidean,
		NameManhattan: Manhattan,
		"l1":          Manhattan,
		NameChebyshev: Chebyshev,
		"linf":        Chebyshev,
	}

	vector32Metrics = map[string]Metric[[]float32]{
		NameEuclidean: Euclidean32,
		"l2":          Euclidean32,
		NameManhattan: Manhattan32,
		"l1":          Manhattan32,
		NameAngular:   Angular32,
	}

	stringMetrics = map[string]Metric[string]{
		NameLevenshtein: Levenshtein,
	}
)

// VectorMetric resolves a float64 vector metric by name (case-insensitive).
func VectorMetric(name string) (Metric[[]float64], error) {
	return lookup(vectorMetrics, name)
}

// Vector32Metric resolves a float32 vector metric by name (case-insensitive).
func Vector32Metric(name string) (Metric[[]float32], error) {
	return lookup(vector32Metrics, name)
}

// StringMetric resolves a string metric by name (case-insensitive).
func StringMetric(name string) (Metric[string], error) {
	return lookup(stringMetrics, name)
}

// IsStringMetric reports whether name resolves to a string metric.
func IsStringMetric(name string) bool {
	_, ok := stringMetrics[strings.ToLower(name)]
	return ok
}

// VectorMetricNames returns the registered float64 vector metric names, sorted.
func VectorMetricNames() []string {
	names := make([]string, 0, len(vectorMetrics))
	for name := range vectorMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup[T any](registry map[string]Metric[T], name string) (Metric[T], error) {
	m, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}
