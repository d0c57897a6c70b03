package kmeans

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/internal/resource"
	"github.com/hupe1980/kcombo/model"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("kmeans: k must be positive")

	// ErrNoPoints is returned when the engine is built without points.
	ErrNoPoints = errors.New("kmeans: no points")

	// ErrNilDistance is returned when no distance function is given.
	ErrNilDistance = errors.New("kmeans: nil distance function")

	// ErrDimensionMismatch is returned when points or centroids disagree on dimension.
	ErrDimensionMismatch = errors.New("kmeans: dimension mismatch")

	// ErrCentroidCount is returned when an initial set does not hold k centroids.
	ErrCentroidCount = errors.New("kmeans: wrong number of initial centroids")

	// ErrNotConverged is returned when the iteration guard is reached.
	ErrNotConverged = errors.New("kmeans: not converged")
)

// pointHeaderBytes is the per-member cost of a cluster entry.
const pointHeaderBytes = 24

// Option configures an Engine.
type Option func(*Engine)

// WithResourceController charges the working state of each Run to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(e *Engine) {
		e.rc = rc
	}
}

// WithMaxIterations stops a Run with ErrNotConverged after n passes.
// n <= 0 means no limit.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIter = n
	}
}

// Engine runs Lloyd's algorithm over a fixed point array.
// It is safe for concurrent use.
type Engine struct {
	points  []model.Point
	k       int
	dim     int
	dist    distance.Func
	rc      *resource.Controller
	maxIter int
}

// NewEngine creates an engine over points. The points are shared, not copied,
// and must not be modified while the engine is in use.
func NewEngine(points []model.Point, k int, fn distance.Func, optFns ...Option) (*Engine, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if fn == nil {
		return nil, ErrNilDistance
	}

	dim := points[0].Dim()
	for i, p := range points {
		if p.Dim() != dim {
			return nil, fmt.Errorf("%w: point %d has dimension %d, want %d", ErrDimensionMismatch, i, p.Dim(), dim)
		}
	}

	e := &Engine{
		points: points,
		k:      k,
		dim:    dim,
		dist:   fn,
	}
	for _, fn := range optFns {
		fn(e)
	}

	return e, nil
}

// K returns the number of clusters.
func (e *Engine) K() int { return e.k }

// Dim returns the point dimension.
func (e *Engine) Dim() int { return e.dim }

// Run clusters the points starting from initial. The returned result refers to
// initial without copying it; initial is never modified.
func (e *Engine) Run(ctx context.Context, initial model.CentroidSet) (*model.Result, error) {
	if len(initial) != e.k {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCentroidCount, len(initial), e.k)
	}
	for i, c := range initial {
		if c.Dim() != e.dim {
			return nil, fmt.Errorf("%w: centroid %d has dimension %d, want %d", ErrDimensionMismatch, i, c.Dim(), e.dim)
		}
	}

	// Two assignments and one centroid set are alive at the same time.
	working := 2*int64(len(e.points))*pointHeaderBytes + int64(e.k*e.dim)*8
	if err := e.rc.AcquireMemory(working); err != nil {
		return nil, fmt.Errorf("kmeans working state: %w", err)
	}
	defer e.rc.ReleaseMemory(working)

	// Seed: every point in cluster 0. The first pass reassigns all of them.
	clusters := model.NewClusterAssignment(e.k)
	clusters[0] = slices.Clone(model.Cluster(e.points))

	centroids := initial
	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.maxIter > 0 && iterations >= e.maxIter {
			return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, iterations)
		}

		next, unchanged := e.assign(centroids, clusters)
		clusters = next
		centroids = e.update(clusters)
		iterations++

		if unchanged {
			break
		}
	}

	return &model.Result{
		Initial:    initial,
		Final:      centroids,
		Clusters:   clusters,
		Distortion: Distortion(e.dist, centroids, clusters),
		Iterations: iterations,
	}, nil
}

// assign moves every point to its nearest centroid. unchanged is true iff no
// point left the cluster it was read from.
func (e *Engine) assign(centroids model.CentroidSet, clusters model.ClusterAssignment) (model.ClusterAssignment, bool) {
	next := model.NewClusterAssignment(e.k)
	unchanged := true

	for c, members := range clusters {
		for _, p := range members {
			best := Nearest(e.dist, p, centroids)
			next[best] = append(next[best], p)
			unchanged = unchanged && best == c
		}
	}

	return next, unchanged
}

// update computes the truncated integer mean of every cluster. Empty clusters
// yield the all-zero centroid.
func (e *Engine) update(clusters model.ClusterAssignment) model.CentroidSet {
	centroids := make(model.CentroidSet, e.k)

	for j, members := range clusters {
		sum := make([]int64, e.dim)
		for _, p := range members {
			for m, v := range p.Values {
				sum[m] += v
			}
		}
		if n := int64(len(members)); n > 0 {
			for m := range sum {
				sum[m] /= n
			}
		}
		centroids[j] = model.Point{Values: sum}
	}

	return centroids
}

// Nearest returns the index of the centroid closest to p. Ties go to the lowest
// index: a later centroid replaces the current best only if strictly closer.
func Nearest(fn distance.Func, p model.Point, centroids model.CentroidSet) int {
	best := 0
	bestDist := fn(p, centroids[0])
	for j := 1; j < len(centroids); j++ {
		if d := fn(p, centroids[j]); d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best
}

// Distortion sums the distance between every member and its cluster's centroid.
func Distortion(fn distance.Func, centroids model.CentroidSet, clusters model.ClusterAssignment) int64 {
	var sum int64
	for j, members := range clusters {
		for _, p := range members {
			sum += fn(p, centroids[j])
		}
	}
	return sum
}
