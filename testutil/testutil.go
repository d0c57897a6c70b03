package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/kcombo/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Int64Range returns a pseudo-random number in [lo, hi).
func (r *RNG) Int64Range(lo, hi int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rand.Int63n(hi-lo)
}

// UniformPoints returns num points with coordinates uniform in [lo, hi).
func (r *RNG) UniformPoints(num, dim int, lo, hi int64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]model.Point, num)
	for i := range points {
		values := make([]int64, dim)
		for j := range values {
			values[j] = lo + r.rand.Int63n(hi-lo)
		}
		points[i] = model.Point{Values: values}
	}
	return points
}

// ClusteredPoints returns num points spread around `clusters` centers placed
// 100 units apart on the diagonal; every coordinate deviates by less than spread.
func (r *RNG) ClusteredPoints(num, dim, clusters int, spread int64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]model.Point, num)
	for i := range points {
		center := int64(r.rand.Intn(clusters)) * 100
		values := make([]int64, dim)
		for j := range values {
			values[j] = center + r.rand.Int63n(2*spread-1) - (spread - 1)
		}
		points[i] = model.Point{Values: values}
	}
	return points
}

// SevenPoints returns the seven two-dimensional points used by the end-to-end
// tests and the examples.
func SevenPoints() []model.Point {
	return []model.Point{
		model.NewPoint(1, 1),
		model.NewPoint(2, 2),
		model.NewPoint(3, 4),
		model.NewPoint(5, 7),
		model.NewPoint(3, 5),
		model.NewPoint(5, 5),
		model.NewPoint(4, 5),
	}
}
