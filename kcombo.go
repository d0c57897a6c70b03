package kcombo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/kcombo/dataset"
	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/internal/combinator"
	"github.com/hupe1980/kcombo/internal/pipeline"
	"github.com/hupe1980/kcombo/internal/progress"
	"github.com/hupe1980/kcombo/internal/resource"
	"github.com/hupe1980/kcombo/model"
	"github.com/hupe1980/kcombo/output"
)

// Summary describes a finished or aborted run.
type Summary struct {
	// RunID tags the log records of the run.
	RunID string

	// Total is C(p, k), the number of rows a complete run writes.
	Total uint64
	// Generated counts the initial sets handed to the workers.
	Generated uint64
	// Written counts the rows encoded into the sink.
	Written uint64

	// Complete is true when every combination was written.
	Complete bool
	// FirstMissing is the lowest combination rank without a row. Only
	// meaningful when Complete is false.
	FirstMissing uint64

	// HasBest reports whether at least one row was written.
	HasBest bool
	// BestSeq and BestDistortion identify the written row with the lowest
	// distortion; ties go to the lower rank.
	BestSeq        uint64
	BestDistortion int64
	BestCentroids  model.CentroidSet

	// PeakMemory is the highest number of accounted bytes held at once.
	PeakMemory int64
	Elapsed    time.Duration
}

// Combinations returns C(p, k) or ErrTooManyCombinations.
func Combinations(p, k int) (uint64, error) {
	n, err := combinator.Count(p, k)
	if errors.Is(err, combinator.ErrOverflow) {
		return 0, fmt.Errorf("%w: C(%d, %d)", ErrTooManyCombinations, p, k)
	}
	return n, err
}

func validate(ds *dataset.Dataset, o *options) (uint64, error) {
	if ds == nil || ds.Len() == 0 {
		return 0, ErrEmptyDataset
	}
	if o.k < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidK, o.k)
	}
	if o.candidates < o.k || o.candidates > ds.Len() {
		return 0, fmt.Errorf("%w: k=%d p=%d n=%d", ErrInvalidCandidates, o.k, o.candidates, ds.Len())
	}
	if o.workers < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWorkers, o.workers)
	}
	return Combinations(o.candidates, o.k)
}

// Run clusters ds once for every combination of k initial centroids drawn
// from its first p points and writes one row per combination to sink.
//
// Rows are written in completion order, not in combination order. sink is
// not closed. On failure the rows written so far are flushed and kept, and
// the returned error names the failing stage via *StageError; the summary is
// still returned.
func Run(ctx context.Context, ds *dataset.Dataset, sink io.Writer, optFns ...Option) (*Summary, error) {
	o := applyOptions(optFns)

	total, err := validate(ds, &o)
	if err != nil {
		return nil, err
	}

	fn, err := distance.Provider(o.metric)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s := &Summary{
		RunID: uuid.NewString(),
		Total: total,
	}
	log := o.logger.WithRunID(s.RunID)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})

	w := sink
	if o.ioLimit > 0 {
		w = resource.NewRateLimitedWriter(ctx, sink, rc)
	}

	enc, err := output.NewEncoder(o.format, w, output.WithClusters(o.clusters))
	if err != nil {
		return nil, err
	}

	ledger := progress.NewLedger(total)

	log.LogRunStart(ctx, ds.Len(), o.k, o.candidates, o.workers, total)

	stats, runErr := pipeline.Run(ctx, pipeline.Config{
		Points:              ds.Points,
		K:                   o.k,
		Candidates:          o.candidates,
		Workers:             o.workers,
		Distance:            fn,
		Encoder:             enc,
		Resources:           rc,
		Ledger:              ledger,
		Metrics:             o.metricsCollector,
		Logger:              log.Logger,
		CentroidQueueFactor: o.centroidQueueFactor,
		ResultQueueFactor:   o.resultQueueFactor,
		MaxIterations:       o.maxIterations,
		Elevate:             o.elevate,
	})

	// Finish the table even after a failure so the written rows stay readable.
	if err := enc.Close(); err != nil {
		runErr = errors.Join(runErr, &pipeline.StageError{Stage: pipeline.StageWriter, Err: fmt.Errorf("close: %w", err)})
	}

	if stats != nil {
		s.Generated = stats.Generated
		s.Written = stats.Written
		if stats.Best != nil {
			s.HasBest = true
			s.BestSeq = stats.Best.Seq
			s.BestDistortion = stats.Best.Distortion
			s.BestCentroids = stats.Best.Final
		}
	}
	s.Complete = ledger.Complete()
	if missing, ok := ledger.FirstMissing(); ok {
		s.FirstMissing = missing
	}
	s.PeakMemory = rc.MemoryPeak()
	s.Elapsed = time.Since(start)

	err = translateError(runErr)
	for _, se := range stageErrors(err) {
		log.LogStageError(ctx, se)
	}
	log.LogRunComplete(ctx, s, err)

	return s, err
}
