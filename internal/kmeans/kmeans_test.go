package kmeans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/internal/combinator"
	"github.com/hupe1980/kcombo/internal/resource"
	"github.com/hupe1980/kcombo/model"
	"github.com/hupe1980/kcombo/testutil"
)

func pts(coords ...[2]int64) []model.Point {
	out := make([]model.Point, len(coords))
	for i, c := range coords {
		out[i] = model.NewPoint(c[0], c[1])
	}
	return out
}

func TestEngine_Run(t *testing.T) {
	points := pts([2]int64{0, 0}, [2]int64{0, 1}, [2]int64{10, 10}, [2]int64{10, 11})
	initial := model.CentroidSet{model.NewPoint(0, 0), model.NewPoint(0, 1)}

	e, err := NewEngine(points, 2, distance.SquaredEuclidean)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, model.CentroidSet{model.NewPoint(0, 0), model.NewPoint(10, 10)}, res.Final)
	assert.Equal(t, "[[(0, 0), (0, 1)], [(10, 10), (10, 11)]]", res.Clusters.String())
	assert.Equal(t, int64(2), res.Distortion)
	assert.Equal(t, 3, res.Iterations)

	// The initial set is carried through untouched.
	assert.Equal(t, model.CentroidSet{model.NewPoint(0, 0), model.NewPoint(0, 1)}, res.Initial)
}

func TestEngine_EmptyClusterGetsZeroCentroid(t *testing.T) {
	points := pts([2]int64{5, 5}, [2]int64{6, 5})
	initial := model.CentroidSet{model.NewPoint(5, 5), model.NewPoint(100, 100)}

	e, err := NewEngine(points, 2, distance.SquaredEuclidean)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), initial)
	require.NoError(t, err)

	// Every point stays in the seed cluster, so the first pass is already a fixed point.
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, model.CentroidSet{model.NewPoint(5, 5), model.NewPoint(0, 0)}, res.Final)
	assert.Empty(t, res.Clusters[1])
	assert.Equal(t, int64(1), res.Distortion)
}

func TestEngine_TruncatesTowardZero(t *testing.T) {
	points := pts([2]int64{-3, 0}, [2]int64{-4, 0})

	e, err := NewEngine(points, 1, distance.SquaredManhattan)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), model.CentroidSet{model.NewPoint(-3, 0)})
	require.NoError(t, err)

	// -7/2 truncates to -3, not -4.
	assert.Equal(t, model.CentroidSet{model.NewPoint(-3, 0)}, res.Final)
}

func TestNearest_TieGoesToLowestIndex(t *testing.T) {
	centroids := model.CentroidSet{model.NewPoint(1, 0), model.NewPoint(-1, 0), model.NewPoint(0, 1)}
	assert.Equal(t, 0, Nearest(distance.SquaredEuclidean, model.NewPoint(0, 0), centroids))

	centroids = model.CentroidSet{model.NewPoint(9, 9), model.NewPoint(-1, 0), model.NewPoint(1, 0)}
	assert.Equal(t, 1, Nearest(distance.SquaredEuclidean, model.NewPoint(0, 0), centroids))
}

func TestEngine_PartitionsAndIsIdempotent(t *testing.T) {
	rng := testutil.NewRNG(42)
	points := rng.ClusteredPoints(60, 3, 3, 10)

	for _, metric := range []distance.Metric{distance.MetricManhattan, distance.MetricEuclidean} {
		t.Run(metric.String(), func(t *testing.T) {
			fn, err := distance.Provider(metric)
			require.NoError(t, err)

			e, err := NewEngine(points, 3, fn)
			require.NoError(t, err)

			it, err := combinator.New(6, 3)
			require.NoError(t, err)

			for idx, ok := it.Next(); ok; idx, ok = it.Next() {
				initial := make(model.CentroidSet, len(idx))
				for i, j := range idx {
					initial[i] = points[j].Clone()
				}

				res, err := e.Run(context.Background(), initial)
				require.NoError(t, err)

				assert.Len(t, res.Clusters, 3)
				assert.Equal(t, len(points), res.Clusters.Len())
				assert.GreaterOrEqual(t, res.Distortion, int64(0))
				assert.Equal(t, Distortion(fn, res.Final, res.Clusters), res.Distortion)

				if res.Iterations < 2 {
					// Converged on the seed pass; Final was never used for assignment.
					continue
				}

				again, err := e.Run(context.Background(), res.Final.Clone())
				require.NoError(t, err)
				assert.True(t, res.Final.Equal(again.Final), "final centroids must be a fixed point")
				assert.Equal(t, res.Distortion, again.Distortion)
				// One pass moves points out of the seed cluster, the next confirms.
				assert.LessOrEqual(t, again.Iterations, 2)
			}
		})
	}
}

func TestEngine_Errors(t *testing.T) {
	points := pts([2]int64{0, 0}, [2]int64{1, 1})

	_, err := NewEngine(points, 0, distance.SquaredEuclidean)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = NewEngine(nil, 1, distance.SquaredEuclidean)
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = NewEngine(points, 1, nil)
	assert.ErrorIs(t, err, ErrNilDistance)

	_, err = NewEngine([]model.Point{model.NewPoint(1), model.NewPoint(1, 2)}, 1, distance.SquaredEuclidean)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	e, err := NewEngine(points, 2, distance.SquaredEuclidean)
	require.NoError(t, err)

	_, err = e.Run(context.Background(), model.CentroidSet{model.NewPoint(0, 0)})
	assert.ErrorIs(t, err, ErrCentroidCount)

	_, err = e.Run(context.Background(), model.CentroidSet{model.NewPoint(0), model.NewPoint(1)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEngine_MaxIterations(t *testing.T) {
	points := pts([2]int64{0, 0}, [2]int64{0, 1}, [2]int64{10, 10}, [2]int64{10, 11})

	e, err := NewEngine(points, 2, distance.SquaredEuclidean, WithMaxIterations(1))
	require.NoError(t, err)

	_, err = e.Run(context.Background(), model.CentroidSet{model.NewPoint(0, 0), model.NewPoint(0, 1)})
	assert.ErrorIs(t, err, ErrNotConverged)
}

func TestEngine_MemoryLimit(t *testing.T) {
	points := pts([2]int64{0, 0}, [2]int64{1, 1})
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})

	e, err := NewEngine(points, 2, distance.SquaredEuclidean, WithResourceController(rc))
	require.NoError(t, err)

	_, err = e.Run(context.Background(), model.CentroidSet{model.NewPoint(0, 0), model.NewPoint(1, 1)})
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := pts([2]int64{0, 0}, [2]int64{1, 1})
	e, err := NewEngine(points, 1, distance.SquaredEuclidean)
	require.NoError(t, err)

	_, err = e.Run(ctx, model.CentroidSet{model.NewPoint(0, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}
