package kcombo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with kcombo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRunID tags every record with the run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithStage adds a pipeline stage field to the logger.
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stage", stage),
	}
}

// WithWorker adds a worker id field to the logger.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", id),
	}
}

// LogRunStart logs the parameters of a run.
func (l *Logger) LogRunStart(ctx context.Context, points, k, candidates, workers int, combinations uint64) {
	l.InfoContext(ctx, "run started",
		"points", points,
		"k", k,
		"candidates", candidates,
		"workers", workers,
		"combinations", combinations,
	)
}

// LogRunComplete logs the outcome of a run.
func (l *Logger) LogRunComplete(ctx context.Context, s *Summary, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run aborted",
			"written", s.Written,
			"total", s.Total,
			"elapsed", s.Elapsed.Round(time.Millisecond),
			"error", err,
		)
		return
	}

	attrs := []any{
		"written", s.Written,
		"elapsed", s.Elapsed.Round(time.Millisecond),
	}
	if s.HasBest {
		attrs = append(attrs, "best_distortion", s.BestDistortion, "best_seq", s.BestSeq)
	}
	l.InfoContext(ctx, "run completed", attrs...)
}

// LogStageError logs the failure of one pipeline stage.
func (l *Logger) LogStageError(ctx context.Context, err *StageError) {
	l.ErrorContext(ctx, "pipeline stage failed",
		"stage", err.Stage,
		"error", err.Err,
	)
}
