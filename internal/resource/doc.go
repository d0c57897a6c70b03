// Package resource budgets the memory held by in-flight pipeline values and
// throttles writes to the result sink.
//
// # Memory Budget
//
// Every CentroidSet created by the generator and every Result built by a worker
// is charged against the budget until the writer releases it. AcquireMemory is
// non-blocking and fails with ErrMemoryLimitExceeded; the pipeline treats that
// as an allocation failure and aborts through the queues:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	if err := rc.AcquireMemory(set.SizeBytes()); err != nil {
//	    a.HandleError("generator")
//	}
//
// # IO Rate Limiting
//
// A token bucket limits bytes written to the sink:
//
//	w := resource.NewRateLimitedWriter(ctx, sink, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
