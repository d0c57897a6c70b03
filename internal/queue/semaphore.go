package queue

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// semaphoreCeiling bounds the number of tokens a counting semaphore can hold.
// Posts beyond the initial value (shutdown wake-ups) consume headroom below it.
const semaphoreCeiling = int64(1) << 40

// counting is a classic counting semaphore on top of a weighted one. Units held
// by the weighted semaphore are tokens that are not available; releasing one
// unit is a post, acquiring one is a wait.
type counting struct {
	w *semaphore.Weighted
}

func newCounting(initial int64) *counting {
	w := semaphore.NewWeighted(semaphoreCeiling)
	// A fresh semaphore never refuses this.
	_ = w.TryAcquire(semaphoreCeiling - initial)
	return &counting{w: w}
}

// wait blocks until a token is available or ctx is done.
func (c *counting) wait(ctx context.Context) error {
	return c.w.Acquire(ctx, 1)
}

// post makes one token available and wakes at most one waiter.
func (c *counting) post() {
	c.w.Release(1)
}
