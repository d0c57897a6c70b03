package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/kcombo/internal/combinator"
	"github.com/hupe1980/kcombo/internal/queue"
	"github.com/hupe1980/kcombo/internal/sched"
	"github.com/hupe1980/kcombo/model"
)

// generate enumerates the combinations and feeds them to the centroid queue.
func (p *pipeline) generate(ctx context.Context) error {
	if p.cfg.Elevate {
		p.elevate(StageGenerator)
	}

	it, err := combinator.New(p.cfg.Candidates, p.cfg.K)
	if err != nil {
		p.centroids.HandleError(StageGenerator)
		return err
	}

	dim := p.cfg.Points[0].Dim()
	setBytes := int64(p.cfg.K * dim * 8)

	for idx, ok := it.Next(); ok; idx, ok = it.Next() {
		seq := it.Rank()

		if err := p.rc.AcquireMemory(setBytes); err != nil {
			// Sets already queued still drain through the workers.
			p.centroids.HandleError(StageGenerator)
			return fmt.Errorf("combination %d: %w", seq, err)
		}

		initial := make(model.CentroidSet, len(idx))
		for i, j := range idx {
			initial[i] = p.cfg.Points[j].Clone()
		}

		if err := p.centroids.Put(ctx, &task{seq: seq, initial: initial}); err != nil {
			p.rc.ReleaseMemory(setBytes)
			if errors.Is(err, queue.ErrDone) {
				// Downstream aborted; whoever failed reports it.
				p.log.DebugContext(ctx, "generator stopped by downstream abort", "combination", seq)
				return nil
			}
			return err
		}

		p.metrics.RecordCombination()
		p.metrics.RecordQueueDepth(p.centroids.Name(), p.centroids.Len())
		p.mu.Lock()
		p.generated++
		p.mu.Unlock()
	}

	p.centroids.SetDone()
	p.centroids.WakeAllConsumers()
	p.log.DebugContext(ctx, "generator finished", "combinations", it.Rank()+1)
	return nil
}

func (p *pipeline) elevate(stage string) {
	nice, err := sched.Elevate()
	if err != nil {
		p.log.Debug("thread priority unchanged", "stage", stage, "error", err)
		return
	}
	p.log.Debug("thread priority raised", "stage", stage, "nice", nice)
}
