package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/internal/combinator"
	"github.com/hupe1980/kcombo/internal/kmeans"
	"github.com/hupe1980/kcombo/internal/progress"
	"github.com/hupe1980/kcombo/internal/queue"
	"github.com/hupe1980/kcombo/internal/resource"
	"github.com/hupe1980/kcombo/model"
	"github.com/hupe1980/kcombo/output"
)

const (
	// DefaultCentroidQueueFactor sizes the centroid queue per worker.
	DefaultCentroidQueueFactor = 10
	// DefaultResultQueueFactor sizes the result queue per worker.
	DefaultResultQueueFactor = 1
)

// Stage names used in errors and logs.
const (
	StageGenerator = "generator"
	StageWriter    = "writer"
	stageWorker    = "worker"
)

// ErrInvalidConfig is returned for configurations Run cannot execute.
var ErrInvalidConfig = errors.New("pipeline: invalid configuration")

// StageError names the pipeline component that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// WorkerStage returns the stage name of worker id.
func WorkerStage(id int) string {
	return fmt.Sprintf("%s %d", stageWorker, id)
}

// Metrics receives pipeline events.
type Metrics interface {
	RecordCombination()
	RecordClustering(iterations int, duration time.Duration, err error)
	RecordRow(bytes int64, err error)
	RecordQueueDepth(queue string, depth int)
}

type noopMetrics struct{}

func (noopMetrics) RecordCombination()                          {}
func (noopMetrics) RecordClustering(int, time.Duration, error) {}
func (noopMetrics) RecordRow(int64, error)                      {}
func (noopMetrics) RecordQueueDepth(string, int)                {}

// Config describes one run.
type Config struct {
	// Points is the full dataset. Initial centroids come from the first
	// Candidates points.
	Points     []model.Point
	K          int
	Candidates int
	Workers    int
	Distance   distance.Func

	// Encoder receives the header and one row per combination.
	Encoder output.Encoder

	// Optional.
	Resources           *resource.Controller
	Ledger              *progress.Ledger
	Metrics             Metrics
	Logger              *slog.Logger
	CentroidQueueFactor int
	ResultQueueFactor   int
	MaxIterations       int

	// Elevate raises the OS thread priority of the generator and the writer.
	Elevate bool
}

// Stats summarises a run.
type Stats struct {
	Total     uint64
	Generated uint64
	Written   uint64

	// Best is the written row with the lowest distortion, ties going to the
	// lower rank. Nil if nothing was written.
	Best *Best
}

// Best identifies the best written row.
type Best struct {
	Seq        uint64
	Distortion int64
	Final      model.CentroidSet
}

type task struct {
	seq     uint64
	initial model.CentroidSet
}

type pipeline struct {
	cfg     Config
	log     *slog.Logger
	rc      *resource.Controller
	metrics Metrics
	engine  *kmeans.Engine
	ledger  *progress.Ledger

	centroids *queue.Bounded[*task]
	results   *queue.Bounded[*model.Result]

	mu        sync.Mutex
	firstFail string
	generated uint64
	written   uint64
	best      *Best
}

func (c *Config) validate() (uint64, error) {
	if c.K < 1 || c.Candidates < c.K || c.Candidates > len(c.Points) {
		return 0, fmt.Errorf("%w: need 1 <= k (%d) <= candidates (%d) <= points (%d)",
			ErrInvalidConfig, c.K, c.Candidates, len(c.Points))
	}
	if c.Workers < 1 {
		return 0, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Distance == nil || c.Encoder == nil {
		return 0, fmt.Errorf("%w: distance and encoder are required", ErrInvalidConfig)
	}
	total, err := combinator.Count(c.Candidates, c.K)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return total, nil
}

// Run executes the pipeline and blocks until every stage has returned.
//
// Rows encoded before a failure stay in the encoder; Run does not close it.
// The returned error joins the failures of all stages, the first one to fail
// leading. Each is a *StageError.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	total, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		cfg:     cfg,
		log:     cfg.Logger,
		rc:      cfg.Resources,
		metrics: cfg.Metrics,
		ledger:  cfg.Ledger,
	}
	if p.log == nil {
		p.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.metrics == nil {
		p.metrics = noopMetrics{}
	}
	if p.ledger == nil {
		p.ledger = progress.NewLedger(total)
	}
	aFactor := cfg.CentroidQueueFactor
	if aFactor < 1 {
		aFactor = DefaultCentroidQueueFactor
	}
	bFactor := cfg.ResultQueueFactor
	if bFactor < 1 {
		bFactor = DefaultResultQueueFactor
	}

	p.engine, err = kmeans.NewEngine(cfg.Points, cfg.K, cfg.Distance,
		kmeans.WithResourceController(cfg.Resources),
		kmeans.WithMaxIterations(cfg.MaxIterations),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	p.centroids, err = queue.New[*task](aFactor*cfg.Workers, queue.WithName("centroids"), queue.WithLogger(p.log))
	if err != nil {
		return nil, err
	}
	p.results, err = queue.New[*model.Result](bFactor*cfg.Workers, queue.WithName("results"), queue.WithLogger(p.log))
	if err != nil {
		return nil, err
	}

	if err := cfg.Encoder.WriteHeader(); err != nil {
		return nil, &StageError{Stage: StageWriter, Err: fmt.Errorf("header: %w", err)}
	}

	p.log.DebugContext(ctx, "pipeline starting",
		"combinations", total,
		"workers", cfg.Workers,
		"centroid_queue", p.centroids.Cap(),
		"result_queue", p.results.Cap(),
	)

	genDone := make(chan error, 1)
	go func() { genDone <- p.stage(StageGenerator, p.generate(ctx)) }()

	writeDone := make(chan error, 1)
	go func() { writeDone <- p.stage(StageWriter, p.write(ctx)) }()

	var g errgroup.Group
	for id := range cfg.Workers {
		g.Go(func() error {
			return p.stage(WorkerStage(id), p.work(ctx, id))
		})
	}
	workErr := g.Wait()

	// No more results can arrive. Release the writer if it waits on an empty queue.
	p.results.SetDone()
	p.results.WakeAllConsumers()

	writeErr := <-writeDone
	genErr := <-genDone

	// Everything still queued is owned by Run now.
	for _, t := range p.centroids.Close() {
		p.rc.ReleaseMemory(t.initial.SizeBytes())
	}
	for _, r := range p.results.Close() {
		p.rc.ReleaseMemory(r.SizeBytes())
	}

	stats := p.stats(total)
	return stats, p.joinErrors(genErr, workErr, writeErr)
}

// stage wraps a failure of the named stage and remembers which stage failed first.
func (p *pipeline) stage(name string, err error) error {
	if err == nil {
		return nil
	}
	p.mu.Lock()
	if p.firstFail == "" {
		p.firstFail = name
	}
	p.mu.Unlock()

	p.log.Error("pipeline stage failed", "stage", name, "error", err)
	return &StageError{Stage: name, Err: err}
}

// fail aborts both queues on behalf of origin.
func (p *pipeline) fail(origin string) {
	p.centroids.HandleError(origin)
	p.results.HandleError(origin)
}

func (p *pipeline) joinErrors(errs ...error) error {
	var first error
	var rest []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var se *StageError
		if first == nil && errors.As(err, &se) && se.Stage == p.firstFail {
			first = err
			continue
		}
		rest = append(rest, err)
	}
	if first == nil {
		return errors.Join(rest...)
	}
	return errors.Join(append([]error{first}, rest...)...)
}

func (p *pipeline) stats(total uint64) *Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &Stats{
		Total:     total,
		Generated: p.generated,
		Written:   p.written,
		Best:      p.best,
	}
}
