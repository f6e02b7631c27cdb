package tree

import "math"

// lfd estimates the local fractal dimension from the center distances of a
// cluster: log2(|items| / |items within radius/2|). Clusters with two items
// or fewer, or with a vanishing radius, have dimension 1.
func lfd(distances []float64, radius float64) float64 {
	half := radius / 2
	if len(distances) <= 2 || half <= math.SmallestNonzeroFloat64 {
		return 1
	}
	count := 0
	for _, d := range distances {
		if d <= half {
			count++
		}
	}
	return math.Log2(float64(len(distances)) / float64(count))
}

// numSamples returns how many items to sample when estimating a cluster
// center. Small populations are used whole; beyond minSamples the sample
// grows with the square root, and beyond sqrtThresh only logarithmically.
func numSamples(population, minSamples, sqrtThresh int) int {
	switch {
	case population < minSamples:
		return population
	case population < minSamples+sqrtThresh:
		return minSamples + int(math.Sqrt(float64(population-minSamples)))
	default:
		return min(population, minSamples+int(math.Sqrt(float64(sqrtThresh)))+
			int(math.Log2(float64(population-minSamples-sqrtThresh+1))))
	}
}
