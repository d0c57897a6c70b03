// Package pipeline runs the three-stage clustering pipeline:
//
//	generator ──► centroid queue ──► N workers ──► result queue ──► writer
//
// The generator enumerates every combination of k initial centroids drawn
// from the first p points. Each worker takes a combination, runs Lloyd's
// algorithm to convergence and hands the result to the writer, which encodes
// it as one row.
//
// Stages never cancel each other through a context. A stage that fails calls
// HandleError on the queues it touches; everyone blocked on those queues wakes,
// observes the terminal state and unwinds. Values still queued at the end are
// released by Run.
package pipeline
