// Package testutil provides testing utilities for kcombo.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic point generators and small fixed datasets.
//
// # Random Points
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(100, 2, -50, 50)
//	pts = rng.ClusteredPoints(100, 2, 3, 5)
//
// # Fixtures
//
//	pts := testutil.SevenPoints()
package testutil
