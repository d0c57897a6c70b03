// Package model defines the core value types shared by every stage of kcombo.
//
// # Data Types
//
//   - Point: an integer coordinate vector; immutable once read from input
//   - CentroidSet: exactly k independently owned points
//   - Cluster: the points assigned to one centroid in an iteration
//   - ClusterAssignment: exactly k clusters, parallel to a CentroidSet
//   - Result: one converged clustering for one combination of initial centroids
//
// Points inside clusters share their coordinate slices with the input dataset.
// CentroidSets never share storage with anything else.
package model
