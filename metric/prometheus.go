package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/kcombo"
)

const namespace = "kcombo"

var _ kcombo.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements kcombo.MetricsCollector.
type PrometheusCollector struct {
	combinations prometheus.Counter
	clusterings  *prometheus.CounterVec
	latency      prometheus.Histogram
	iterations   prometheus.Histogram
	rows         *prometheus.CounterVec
	bytes        prometheus.Counter
	queueDepth   *prometheus.GaugeVec
}

// NewPrometheusCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		combinations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combinations_generated_total",
			Help:      "Initial centroid sets handed to the workers",
		}),
		clusterings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusterings_total",
			Help:      "Clustering runs completed",
		}, []string{"status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clustering_duration_seconds",
			Help:      "Time to cluster one combination",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clustering_iterations",
			Help:      "Lloyd's iterations until convergence",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Result rows encoded into the sink",
		}, []string{"status"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_bytes_total",
			Help:      "Bytes that reached the sink",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Values queued between pipeline stages",
		}, []string{"queue"}),
	}

	for _, col := range []prometheus.Collector{
		c.combinations, c.clusterings, c.latency, c.iterations, c.rows, c.bytes, c.queueDepth,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordCombination implements kcombo.MetricsCollector.
func (c *PrometheusCollector) RecordCombination() {
	c.combinations.Inc()
}

// RecordClustering implements kcombo.MetricsCollector.
func (c *PrometheusCollector) RecordClustering(iterations int, d time.Duration, err error) {
	c.clusterings.WithLabelValues(status(err)).Inc()
	c.latency.Observe(d.Seconds())
	if err == nil {
		c.iterations.Observe(float64(iterations))
	}
}

// RecordRow implements kcombo.MetricsCollector.
func (c *PrometheusCollector) RecordRow(bytes int64, err error) {
	c.rows.WithLabelValues(status(err)).Inc()
	c.bytes.Add(float64(bytes))
}

// RecordQueueDepth implements kcombo.MetricsCollector.
func (c *PrometheusCollector) RecordQueueDepth(queue string, depth int) {
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}
