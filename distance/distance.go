package distance

import (
	"fmt"
	"strings"

	"github.com/hupe1980/kcombo/model"
)

// SquaredManhattan returns (sum |a_i - b_i|)^2.
// Assumes points are the same dimension (caller's responsibility).
func SquaredManhattan(a, b model.Point) int64 {
	av, bv := a.Values, b.Values
	var sum int64
	for i := range av {
		d := av[i] - bv[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum * sum
}

// SquaredEuclidean returns sum (a_i - b_i)^2.
// Assumes points are the same dimension (caller's responsibility).
func SquaredEuclidean(a, b model.Point) int64 {
	av, bv := a.Values, b.Values
	var sum int64
	for i := range av {
		d := av[i] - bv[i]
		sum += d * d
	}
	return sum
}

// Metric selects the distance formula.
type Metric int

const (
	MetricManhattan Metric = iota
	MetricEuclidean
)

func (m Metric) String() string {
	switch m {
	case MetricManhattan:
		return "manhattan"
	case MetricEuclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric maps "manhattan" or "euclidean" (case-insensitive) to a Metric.
// The empty string selects MetricManhattan.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manhattan":
		return MetricManhattan, nil
	case "euclidean":
		return MetricEuclidean, nil
	default:
		return 0, fmt.Errorf("unsupported distance %q: want \"manhattan\" or \"euclidean\"", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b model.Point) int64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricManhattan:
		return SquaredManhattan, nil
	case MetricEuclidean:
		return SquaredEuclidean, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
