package kcombo

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/output"
)

// Defaults used when an option is not given.
const (
	DefaultK       = 2
	DefaultWorkers = 4
)

type options struct {
	k                   int
	candidates          int
	workers             int
	metric              distance.Metric
	format              output.Format
	clusters            bool
	metricsCollector    MetricsCollector
	logger              *Logger
	memoryLimit         int64
	ioLimit             int64
	centroidQueueFactor int
	resultQueueFactor   int
	maxIterations       int
	elevate             bool
}

// Option configures Run.
type Option func(*options)

// WithK sets the number of clusters. Default 2.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithCandidates sets p, the number of leading points the initial centroids
// are drawn from. Zero means p = k.
func WithCandidates(p int) Option {
	return func(o *options) {
		o.candidates = p
	}
}

// WithWorkers sets the number of clustering workers. Default 4.
//
// Zero or negative selects runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithMetric selects the distance function. Default distance.MetricManhattan.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithFormat selects the row encoding. Default output.FormatCSV.
func WithFormat(f output.Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithQuiet drops the clusters column from every row.
func WithQuiet(quiet bool) Option {
	return func(o *options) {
		o.clusters = !quiet
	}
}

// WithMetricsCollector configures a metrics collector for monitoring a run.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kcombo.BasicMetricsCollector{}
//	_, _ = kcombo.Run(ctx, ds, os.Stdout, kcombo.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Rows: %d, Avg clustering: %dns\n", stats.RowCount, stats.ClusterAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for a run.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kcombo.NewJSONLogger(slog.LevelInfo)
//	_, _ = kcombo.Run(ctx, ds, os.Stdout, kcombo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit caps the bytes held by queued centroid sets, in-flight
// clustering state and unwritten results. An allocation that would exceed
// the limit aborts the run. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit caps sink throughput in bytes per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithQueueFactor sets the per-worker capacity of the centroid and result
// queues. Defaults are 10 and 1.
func WithQueueFactor(centroids, results int) Option {
	return func(o *options) {
		o.centroidQueueFactor = centroids
		o.resultQueueFactor = results
	}
}

// WithMaxIterations bounds the Lloyd's iterations of a single combination.
// Reaching the bound fails the run. Zero means no bound.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithElevatedPriority raises the OS thread priority of the generator and
// writer stages where the platform permits it.
func WithElevatedPriority(on bool) Option {
	return func(o *options) {
		o.elevate = on
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		k:                DefaultK,
		workers:          DefaultWorkers,
		metric:           distance.MetricManhattan,
		format:           output.FormatCSV,
		clusters:         true,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.candidates == 0 {
		o.candidates = o.k
	}
	return o
}
