// Package distance provides the squared distance functions used by kcombo.
//
// # Supported Metrics
//
//   - MetricManhattan: square of the L1 norm of the difference (default)
//   - MetricEuclidean: sum of squared coordinate differences
//
// MetricManhattan squares the summed absolute differences; it is not the sum of
// squared per-axis differences. Result files produced by earlier runs depend on
// this exact formula.
//
// # Usage
//
//	fn, err := distance.Provider(distance.MetricEuclidean)
//	d := fn(a, b)
//
// Both functions assume points of equal dimension (caller's responsibility).
// A selected Func is a plain value and is safe for concurrent use.
package distance
