// Package testutil provides seeded data generators and brute-force oracles
// for tests and benchmarks.
//
//	rng := testutil.NewRNG(seed)
//	points := rng.UniformVectors(1000, 8)
//	want := testutil.BruteForceKNN(points, q, 10, distance.Euclidean)
package testutil
