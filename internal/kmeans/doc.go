// Package kmeans implements Lloyd's algorithm over integer points.
//
// An Engine is built once per run from the shared, read-only point array and
// the selected distance function, and is then used concurrently by every
// worker. Each Run starts from one CentroidSet and iterates until no point
// changes cluster.
//
// Arithmetic is integral: centroid coordinates are means truncated toward zero,
// and a cluster without members gets the all-zero centroid.
package kmeans
