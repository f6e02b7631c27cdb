package distance

import (
	"math"

	"github.com/viterin/vek/vek32"
	"gonum.org/v1/gonum/floats"
)

// Built-in metric names.
const (
	NameAbsoluteDifference = "absolute-difference"
	NameEuclidean          = "euclidean"
	NameManhattan          = "manhattan"
	NameChebyshev          = "chebyshev"
	NameAngular            = "angular"
	NameHamming            = "hamming"
	NameLevenshtein        = "levenshtein"
)

var (
	// AbsoluteDifference is |a - b| on scalars.
	AbsoluteDifference = New(NameAbsoluteDifference, func(a, b float64) float64 {
		return math.Abs(a - b)
	})

	// Euclidean is the L2 distance.
	// Assumes vectors are the same length (caller's responsibility).
	Euclidean = New(NameEuclidean, func(a, b []float64) float64 {
		return floats.Distance(a, b, 2)
	})

	// Manhattan is the L1 distance.
	Manhattan = New(NameManhattan, func(a, b []float64) float64 {
		return floats.Distance(a, b, 1)
	})

	// Chebyshev is the L∞ distance.
	Chebyshev = New(NameChebyshev, func(a, b []float64) float64 {
		return floats.Distance(a, b, math.Inf(1))
	})

	// Euclidean32 is the L2 distance on float32 vectors.
	Euclidean32 = New(NameEuclidean, func(a, b []float32) float64 {
		return float64(vek32.Distance(a, b))
	})

	// Manhattan32 is the L1 distance on float32 vectors.
	Manhattan32 = New(NameManhattan, func(a, b []float32) float64 {
		return float64(vek32.ManhattanDistance(a, b))
	})

	// Angular32 is the angle between two float32 vectors normalized to [0, 1].
	Angular32 = New(NameAngular, angular32)
)

// angular32 returns arccos(cos θ)/π. A zero vector is at 0 from another zero
// vector and at 0.5 from everything else.
func angular32(a, b []float32) float64 {
	na := float64(vek32.Dot(a, a))
	nb := float64(vek32.Dot(b, b))
	switch {
	case na == 0 && nb == 0:
		return 0
	case na == 0 || nb == 0:
		return 0.5
	}
	cos := float64(vek32.Dot(a, b)) / math.Sqrt(na*nb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) / math.Pi
}
