package kcombo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kcombo/internal/pipeline"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidCandidates is returned when the candidate count is below k or
	// above the number of points.
	ErrInvalidCandidates = errors.New("candidates must satisfy k <= p <= n")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("workers must be positive")

	// ErrEmptyDataset is returned when there are no points to cluster.
	ErrEmptyDataset = errors.New("dataset has no points")

	// ErrTooManyCombinations is returned when C(p, k) does not fit in 64 bits.
	ErrTooManyCombinations = errors.New("too many combinations")
)

// StageError reports which pipeline component failed.
//
// The original underlying error can be accessed via errors.Unwrap.
type StageError struct {
	// Stage is "generator", "writer" or "worker <id>".
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// translateError maps pipeline errors onto the public error types. Joined
// errors keep their order.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		out := make([]error, len(errs))
		for i, e := range errs {
			out[i] = translateError(e)
		}
		if len(out) == 1 {
			return out[0]
		}
		return errors.Join(out...)
	}

	var se *pipeline.StageError
	if errors.As(err, &se) {
		return &StageError{Stage: se.Stage, Err: se.Err}
	}

	return err
}

// stageErrors returns every stage failure in err, first failure first.
func stageErrors(err error) []*StageError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*StageError
		for _, e := range joined.Unwrap() {
			out = append(out, stageErrors(e)...)
		}
		return out
	}
	var se *StageError
	if errors.As(err, &se) {
		return []*StageError{se}
	}
	return nil
}
