package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

var (
	// ErrDone is returned by Put once the queue no longer accepts values.
	// The caller keeps ownership of the value it tried to put.
	ErrDone = errors.New("queue: done")

	// ErrDrained is returned by Get when the queue is done and empty.
	ErrDrained = errors.New("queue: no more input")

	// ErrWaitFailed wraps a failure of the underlying semaphore wait.
	ErrWaitFailed = errors.New("queue: wait failed")

	// ErrInvalidCapacity is returned by New for capacities below one.
	ErrInvalidCapacity = errors.New("queue: capacity must be positive")
)

type slot[T any] struct {
	v    T
	full bool
}

// Option configures a Bounded queue.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithName sets the name used in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger used by HandleError.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Bounded is a fixed-capacity multi-producer multi-consumer FIFO queue.
//
// Values are transferred by ownership: after a successful Put the queue owns the
// value, and after Get returns it the queue keeps no reference to it.
type Bounded[T any] struct {
	name   string
	logger *slog.Logger

	free   *counting
	filled *counting

	mu        sync.Mutex
	idle      *sync.Cond // broadcast whenever a waiter unregisters
	slots     []slot[T]
	putCursor int
	getCursor int
	count     int
	done      bool

	waitingProducers int
	waitingConsumers int
}

// New creates a queue holding at most capacity values.
func New[T any](capacity int, optFns ...Option) (*Bounded[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	opts := options{
		name:   "queue",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	q := &Bounded[T]{
		name:   opts.name,
		logger: opts.logger,
		free:   newCounting(int64(capacity)),
		filled: newCounting(0),
		slots:  make([]slot[T], capacity),
	}
	q.idle = sync.NewCond(&q.mu)

	return q, nil
}

// Name returns the queue name.
func (q *Bounded[T]) Name() string { return q.name }

// Cap returns the capacity.
func (q *Bounded[T]) Cap() int { return len(q.slots) }

// Len returns the number of queued values.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Done reports whether SetDone has been called.
func (q *Bounded[T]) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// Waiting returns the number of producers and consumers currently registered
// as waiting.
func (q *Bounded[T]) Waiting() (producers, consumers int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waitingProducers, q.waitingConsumers
}

// Put blocks until a slot is free, then stores v.
//
// If the queue is done when Put is called, or becomes done while Put waits, v
// is not stored and ErrDone is returned. The same holds for a producer released
// by WakeAllProducers that finds no free slot. If the wait itself fails (ctx is done)
// the queue is aborted via HandleError and the error wraps ErrWaitFailed.
func (q *Bounded[T]) Put(ctx context.Context, v T) error {
	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		return ErrDone
	}
	q.waitingProducers++
	q.mu.Unlock()

	if err := q.free.wait(ctx); err != nil {
		q.mu.Lock()
		q.waitingProducers--
		q.idle.Broadcast()
		q.mu.Unlock()

		q.HandleError("put")
		return fmt.Errorf("%w: %w", ErrWaitFailed, err)
	}

	q.mu.Lock()
	q.waitingProducers--
	q.idle.Broadcast()
	// A producer released by WakeAllProducers may find every slot still full.
	if q.done || q.count == len(q.slots) {
		q.mu.Unlock()
		return ErrDone
	}

	// The cursor may trail the true next free slot; scan forward.
	for q.slots[q.putCursor].full {
		q.putCursor = q.next(q.putCursor)
	}
	q.slots[q.putCursor] = slot[T]{v: v, full: true}
	q.putCursor = q.next(q.putCursor)
	q.count++
	q.mu.Unlock()

	q.filled.post()
	return nil
}

// Get blocks until a value is available and returns the oldest one.
//
// Get returns ErrDrained when the queue is done and empty, and also when a
// consumer released by WakeAllConsumers finds nothing to take. If the wait
// itself fails the queue is aborted via HandleError and the error wraps
// ErrWaitFailed.
func (q *Bounded[T]) Get(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	if q.count == 0 && q.done {
		q.mu.Unlock()
		return zero, ErrDrained
	}
	q.waitingConsumers++
	q.mu.Unlock()

	if err := q.filled.wait(ctx); err != nil {
		q.mu.Lock()
		q.waitingConsumers--
		q.idle.Broadcast()
		q.mu.Unlock()

		q.HandleError("get")
		return zero, fmt.Errorf("%w: %w", ErrWaitFailed, err)
	}

	q.mu.Lock()
	q.waitingConsumers--
	q.idle.Broadcast()
	if q.count == 0 {
		q.mu.Unlock()
		return zero, ErrDrained
	}

	// The cursor may trail the true next occupied slot; scan forward.
	for !q.slots[q.getCursor].full {
		q.getCursor = q.next(q.getCursor)
	}
	v := q.slots[q.getCursor].v
	q.slots[q.getCursor] = slot[T]{}
	q.getCursor = q.next(q.getCursor)
	q.count--
	q.mu.Unlock()

	q.free.post()
	return v, nil
}

// SetDone marks that no more values will be put. It is idempotent and does not
// wake any waiter.
func (q *Bounded[T]) SetDone() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
}

// WakeAllProducers posts one free token per registered producer.
func (q *Bounded[T]) WakeAllProducers() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for range q.waitingProducers {
		q.free.post()
	}
}

// WakeAllConsumers posts one filled token per registered consumer.
func (q *Bounded[T]) WakeAllConsumers() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for range q.waitingConsumers {
		q.filled.post()
	}
}

// HandleError aborts the queue: it marks it done and releases every blocked
// producer and consumer so they can observe the terminal state.
func (q *Bounded[T]) HandleError(origin string) {
	q.logger.Error("queue received a failure signal", "queue", q.name, "origin", origin)
	q.SetDone()
	q.WakeAllProducers()
	q.WakeAllConsumers()
}

// Close waits until no producer or consumer is registered as waiting and
// returns the values still queued, in FIFO order, so the caller can release
// them. The queue must be done before Close is called, otherwise Close may
// block forever.
func (q *Bounded[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.waitingProducers > 0 || q.waitingConsumers > 0 {
		q.idle.Wait()
	}

	rest := make([]T, 0, q.count)
	for q.count > 0 {
		if q.slots[q.getCursor].full {
			rest = append(rest, q.slots[q.getCursor].v)
			q.slots[q.getCursor] = slot[T]{}
			q.count--
		}
		q.getCursor = q.next(q.getCursor)
	}
	return rest
}

func (q *Bounded[T]) next(i int) int {
	if i == len(q.slots)-1 {
		return 0
	}
	return i + 1
}
