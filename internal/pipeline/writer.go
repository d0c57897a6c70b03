package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/kcombo/internal/queue"
	"github.com/hupe1980/kcombo/model"
)

// write encodes results until the result queue is drained.
func (p *pipeline) write(ctx context.Context) error {
	if p.cfg.Elevate {
		p.elevate(StageWriter)
	}

	enc := p.cfg.Encoder
	for {
		res, err := p.results.Get(ctx)
		if errors.Is(err, queue.ErrDrained) {
			p.log.DebugContext(ctx, "writer finished")
			return nil
		}
		if err != nil {
			p.centroids.HandleError(StageWriter)
			return err
		}
		p.metrics.RecordQueueDepth(p.results.Name(), p.results.Len())

		before := enc.BytesWritten()
		err = enc.Encode(res)
		p.metrics.RecordRow(enc.BytesWritten()-before, err)
		p.rc.ReleaseMemory(res.SizeBytes())

		if err != nil {
			p.fail(StageWriter)
			return fmt.Errorf("row %d: %w", res.Seq, err)
		}

		p.record(res)
	}
}

func (p *pipeline) record(res *model.Result) {
	p.ledger.Add(res.Seq)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.written++
	if p.best == nil || res.Distortion < p.best.Distortion ||
		(res.Distortion == p.best.Distortion && res.Seq < p.best.Seq) {
		p.best = &Best{Seq: res.Seq, Distortion: res.Distortion, Final: res.Final}
	}
}
