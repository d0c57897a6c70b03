// Package kcombo runs k-means once for every possible choice of initial
// centroids.
//
// Given n integer points, kcombo enumerates every combination of k initial
// centroids drawn from the first p points, runs Lloyd's algorithm to
// convergence for each combination in parallel, and writes one row per
// combination: the initial centroids, the distortion, the final centroids and
// optionally the final clusters.
//
// # Quick Start
//
//	ds, _ := dataset.Load(ctx, blobstore.NewLocalStore(""), "points.bin")
//	summary, err := kcombo.Run(ctx, ds, os.Stdout,
//	    kcombo.WithK(3),
//	    kcombo.WithCandidates(10),
//	    kcombo.WithWorkers(8),
//	    kcombo.WithMetric(distance.MetricEuclidean),
//	)
//
// # Pipeline
//
// A generator enumerates combinations into a bounded queue of capacity 10×N.
// N workers cluster them and hand results to a second queue of capacity N,
// which a single writer drains into the sink:
//
//	generator ──► centroids (10×N) ──► N workers ──► results (N) ──► writer ──► sink
//
// Rows appear in completion order. A failing stage aborts both queues; every
// other stage unwinds and the error names the stage that failed first.
//
// # Distances
//
// Coordinates and distances are int64. MetricManhattan is the square of the
// L1 distance, (Σ|aᵢ-bᵢ|)², and MetricEuclidean the squared L2 distance.
// Centroids are truncated integer means; an empty cluster gets the all-zero
// centroid.
package kcombo
