package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/kcombo/internal/queue"
)

// work clusters combinations until the centroid queue is drained.
func (p *pipeline) work(ctx context.Context, id int) error {
	name := WorkerStage(id)
	log := p.log.With("stage", name)

	for {
		t, err := p.centroids.Get(ctx)
		if errors.Is(err, queue.ErrDrained) {
			log.DebugContext(ctx, "worker finished")
			return nil
		}
		if err != nil {
			p.results.HandleError(name)
			return err
		}

		start := time.Now()
		res, err := p.engine.Run(ctx, t.initial)
		iterations := 0
		if res != nil {
			iterations = res.Iterations
		}
		p.metrics.RecordClustering(iterations, time.Since(start), err)
		if err != nil {
			p.rc.ReleaseMemory(t.initial.SizeBytes())
			p.fail(name)
			return fmt.Errorf("combination %d: %w", t.seq, err)
		}
		res.Seq = t.seq

		// The initial set is already charged; add what the result owns beyond it.
		if err := p.rc.AcquireMemory(res.SizeBytes() - t.initial.SizeBytes()); err != nil {
			p.rc.ReleaseMemory(t.initial.SizeBytes())
			p.fail(name)
			return fmt.Errorf("combination %d result: %w", t.seq, err)
		}

		log.DebugContext(ctx, "combination clustered",
			"combination", t.seq,
			"iterations", res.Iterations,
			"distortion", res.Distortion,
		)

		if err := p.results.Put(ctx, res); err != nil {
			p.rc.ReleaseMemory(res.SizeBytes())
			if errors.Is(err, queue.ErrDone) {
				log.DebugContext(ctx, "worker stopped by downstream abort")
				return nil
			}
			p.centroids.HandleError(name)
			return err
		}
	}
}
