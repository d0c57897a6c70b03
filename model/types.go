package model

import (
	"fmt"
	"slices"
	"strings"
)

// Point is an integer coordinate vector.
type Point struct {
	Values []int64
}

// NewPoint returns a point holding the given coordinates. The slice is not copied.
func NewPoint(values ...int64) Point {
	return Point{Values: values}
}

// Dim returns the dimension of the point.
func (p Point) Dim() int { return len(p.Values) }

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	return Point{Values: slices.Clone(p.Values)}
}

// Equal reports whether p and o have identical coordinates.
func (p Point) Equal(o Point) bool {
	return slices.Equal(p.Values, o.Values)
}

// String returns the tuple form "(v1, v2, ...)".
func (p Point) String() string {
	var sb strings.Builder
	p.AppendTo(&sb)
	return sb.String()
}

// AppendTo writes the tuple form of p to sb.
func (p Point) AppendTo(sb *strings.Builder) {
	sb.WriteByte('(')
	for i, v := range p.Values {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%d", v)
	}
	sb.WriteByte(')')
}

// SizeBytes estimates the heap footprint of the coordinates.
func (p Point) SizeBytes() int64 {
	return int64(len(p.Values)) * 8
}

// CentroidSet is an ordered set of exactly k centroids.
type CentroidSet []Point

// Clone deep copies every centroid.
func (cs CentroidSet) Clone() CentroidSet {
	out := make(CentroidSet, len(cs))
	for i, p := range cs {
		out[i] = p.Clone()
	}
	return out
}

// Equal reports whether both sets hold equal centroids in the same order.
func (cs CentroidSet) Equal(o CentroidSet) bool {
	return slices.EqualFunc(cs, o, Point.Equal)
}

// SizeBytes estimates the heap footprint of the set.
func (cs CentroidSet) SizeBytes() int64 {
	var n int64
	for _, p := range cs {
		n += p.SizeBytes()
	}
	return n
}

// String returns the bracketed form "[(a, b), (c, d)]".
func (cs CentroidSet) String() string {
	return Cluster(cs).String()
}

// Cluster holds the points assigned to one centroid.
type Cluster []Point

// String returns the bracketed form "[(a, b), (c, d)]".
func (c Cluster) String() string {
	var sb strings.Builder
	c.AppendTo(&sb)
	return sb.String()
}

// AppendTo writes the bracketed form of c to sb.
func (c Cluster) AppendTo(sb *strings.Builder) {
	sb.WriteByte('[')
	for i, p := range c {
		if i > 0 {
			sb.WriteString(", ")
		}
		p.AppendTo(sb)
	}
	sb.WriteByte(']')
}

// ClusterAssignment holds exactly k clusters, indexed like the centroids.
type ClusterAssignment []Cluster

// NewClusterAssignment returns k empty clusters.
func NewClusterAssignment(k int) ClusterAssignment {
	return make(ClusterAssignment, k)
}

// Len returns the total number of points over all clusters.
func (ca ClusterAssignment) Len() int {
	n := 0
	for _, c := range ca {
		n += len(c)
	}
	return n
}

// String returns the nested form "[[(a, b)], [(c, d), (e, f)]]".
func (ca ClusterAssignment) String() string {
	var sb strings.Builder
	ca.AppendTo(&sb)
	return sb.String()
}

// AppendTo writes the nested form of ca to sb.
func (ca ClusterAssignment) AppendTo(sb *strings.Builder) {
	sb.WriteByte('[')
	for i, c := range ca {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.AppendTo(sb)
	}
	sb.WriteByte(']')
}

// Result is the outcome of running Lloyd's algorithm from one combination.
type Result struct {
	// Seq is the lexicographic rank of the initial combination.
	Seq uint64
	// Initial is the set the algorithm started from. It is never modified.
	Initial CentroidSet
	// Final holds the converged centroids.
	Final CentroidSet
	// Clusters is the converged assignment, parallel to Final.
	Clusters ClusterAssignment
	// Distortion is the sum of distances between members and their centroid.
	Distortion int64
	// Iterations is the number of assign/update rounds until the fixed point.
	Iterations int
}

// SizeBytes estimates the heap footprint owned by the result. Cluster members
// share coordinates with the input and are charged one slice header each.
func (r *Result) SizeBytes() int64 {
	return r.Initial.SizeBytes() + r.Final.SizeBytes() + int64(r.Clusters.Len())*24
}
