package kcombo

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// package metric provides one.
//
// Methods are called concurrently from the pipeline stages.
type MetricsCollector interface {
	// RecordCombination is called when the generator queues an initial set.
	RecordCombination()

	// RecordClustering is called after each clustering run. iterations is
	// zero when err is not nil.
	RecordClustering(iterations int, duration time.Duration, err error)

	// RecordRow is called after each row is encoded. bytes is what reached
	// the sink, which may be zero for buffered rows.
	RecordRow(bytes int64, err error)

	// RecordQueueDepth reports the length of the named queue
	// ("centroids" or "results") after a put or get.
	RecordQueueDepth(queue string, depth int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCombination()                          {}
func (NoopMetricsCollector) RecordClustering(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRow(int64, error)                      {}
func (NoopMetricsCollector) RecordQueueDepth(string, int)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Combinations      atomic.Int64
	ClusterCount      atomic.Int64
	ClusterErrors     atomic.Int64
	ClusterTotalNanos atomic.Int64
	IterationsTotal   atomic.Int64
	RowCount          atomic.Int64
	RowErrors         atomic.Int64
	BytesWritten      atomic.Int64

	mu        sync.Mutex
	maxDepths map[string]int
}

// RecordCombination implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCombination() {
	b.Combinations.Add(1)
}

// RecordClustering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClustering(iterations int, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	b.IterationsTotal.Add(int64(iterations))
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// RecordRow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRow(bytes int64, err error) {
	b.RowCount.Add(1)
	b.BytesWritten.Add(bytes)
	if err != nil {
		b.RowErrors.Add(1)
	}
}

// RecordQueueDepth implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQueueDepth(queue string, depth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxDepths == nil {
		b.maxDepths = make(map[string]int)
	}
	if depth > b.maxDepths[queue] {
		b.maxDepths[queue] = depth
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	depths := make(map[string]int, len(b.maxDepths))
	for q, d := range b.maxDepths {
		depths[q] = d
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		Combinations:    b.Combinations.Load(),
		ClusterCount:    b.ClusterCount.Load(),
		ClusterErrors:   b.ClusterErrors.Load(),
		ClusterAvgNanos: b.avg(b.ClusterTotalNanos.Load()),
		AvgIterations:   b.avg(b.IterationsTotal.Load()),
		RowCount:        b.RowCount.Load(),
		RowErrors:       b.RowErrors.Load(),
		BytesWritten:    b.BytesWritten.Load(),
		MaxQueueDepth:   depths,
	}
}

func (b *BasicMetricsCollector) avg(total int64) int64 {
	count := b.ClusterCount.Load()
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Combinations    int64
	ClusterCount    int64
	ClusterErrors   int64
	ClusterAvgNanos int64
	AvgIterations   int64
	RowCount        int64
	RowErrors       int64
	BytesWritten    int64
	MaxQueueDepth   map[string]int
}
