package queue

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestBounded_FIFO(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](4, WithName("fifo"))
	require.NoError(t, err)
	assert.Equal(t, "fifo", q.Name())
	assert.Equal(t, 4, q.Cap())

	// Interleave puts and gets so the cursors wrap around several times.
	next := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, q.Put(ctx, round*3+i))
		}
		for i := 0; i < 3; i++ {
			v, err := q.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, next, v)
			next++
		}
	}
	assert.Equal(t, 0, q.Len())
}

func TestBounded_PutBlocksWhenFull(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](2)
	require.NoError(t, err)

	require.NoError(t, q.Put(ctx, 1))
	require.NoError(t, q.Put(ctx, 2))

	stored := make(chan error, 1)
	go func() {
		stored <- q.Put(ctx, 3)
	}()

	waitFor(t, func() bool {
		p, _ := q.Waiting()
		return p == 1
	})
	assert.Equal(t, 2, q.Len())

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, <-stored)

	for _, want := range []int{2, 3} {
		v, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestBounded_DrainedAfterDone(t *testing.T) {
	ctx := context.Background()
	q, err := New[string](3)
	require.NoError(t, err)

	require.NoError(t, q.Put(ctx, "a"))
	q.SetDone()
	q.SetDone() // idempotent
	q.WakeAllConsumers()

	assert.ErrorIs(t, q.Put(ctx, "b"), ErrDone)

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	// Empty and done: returns without blocking.
	_, err = q.Get(ctx)
	assert.ErrorIs(t, err, ErrDrained)
}

func TestBounded_WakeAllConsumers(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](2)
	require.NoError(t, err)

	const consumers = 5
	errs := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		go func() {
			_, err := q.Get(ctx)
			errs <- err
		}()
	}

	waitFor(t, func() bool {
		_, c := q.Waiting()
		return c == consumers
	})

	q.SetDone()
	q.WakeAllConsumers()

	for i := 0; i < consumers; i++ {
		assert.ErrorIs(t, <-errs, ErrDrained)
	}
	p, c := q.Waiting()
	assert.Zero(t, p)
	assert.Zero(t, c)
}

func TestBounded_WakeAllProducersWhileFull(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](1)
	require.NoError(t, err)
	require.NoError(t, q.Put(ctx, 1))

	errs := make(chan error, 1)
	go func() {
		errs <- q.Put(ctx, 2)
	}()

	waitFor(t, func() bool {
		p, _ := q.Waiting()
		return p == 1
	})

	q.WakeAllProducers()

	assert.ErrorIs(t, <-errs, ErrDone)
	assert.Equal(t, 1, q.Len())

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBounded_HandleErrorReleasesProducers(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](1)
	require.NoError(t, err)
	require.NoError(t, q.Put(ctx, 0))

	const producers = 3
	errs := make(chan error, producers)
	for i := 0; i < producers; i++ {
		go func(v int) {
			errs <- q.Put(ctx, v)
		}(i + 1)
	}

	waitFor(t, func() bool {
		p, _ := q.Waiting()
		return p == producers
	})

	q.HandleError("test")

	for i := 0; i < producers; i++ {
		assert.ErrorIs(t, <-errs, ErrDone)
	}
	assert.True(t, q.Done())

	// Nothing was stored after done; the value put before is still drainable.
	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	_, err = q.Get(ctx)
	assert.ErrorIs(t, err, ErrDrained)
}

func TestBounded_WaitFailureAbortsQueue(t *testing.T) {
	q, err := New[int](1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		done <- err
	}()

	waitFor(t, func() bool {
		_, c := q.Waiting()
		return c == 1
	})
	cancel()

	err = <-done
	assert.ErrorIs(t, err, ErrWaitFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, q.Done())
	assert.ErrorIs(t, q.Put(context.Background(), 1), ErrDone)
}

func TestBounded_ConcurrentProducersConsumers(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](8)
	require.NoError(t, err)

	const (
		producers = 4
		perProd   = 500
		consumers = 6
	)

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func(base int) {
			defer prodWG.Done()
			for i := 0; i < perProd; i++ {
				assert.NoError(t, q.Put(ctx, base*perProd+i))
			}
		}(p)
	}

	var (
		mu  sync.Mutex
		got []int
	)
	var consWG sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consWG.Add(1)
		go func() {
			defer consWG.Done()
			for {
				v, err := q.Get(ctx)
				if err != nil {
					assert.ErrorIs(t, err, ErrDrained)
					return
				}
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
			}
		}()
	}

	prodWG.Wait()
	q.SetDone()
	q.WakeAllConsumers()
	consWG.Wait()

	require.Len(t, got, producers*perProd)
	sort.Ints(got)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.Empty(t, q.Close())
}

func TestBounded_SingleConsumerSeesPutOrder(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](3)
	require.NoError(t, err)

	go func() {
		for i := 0; i < 1000; i++ {
			if err := q.Put(ctx, i); err != nil {
				return
			}
		}
		q.SetDone()
		q.WakeAllConsumers()
	}()

	want := 0
	for {
		v, err := q.Get(ctx)
		if err != nil {
			require.ErrorIs(t, err, ErrDrained)
			break
		}
		assert.Equal(t, want, v)
		want++
	}
	assert.Equal(t, 1000, want)
}

func TestBounded_CloseReturnsLeftovers(t *testing.T) {
	ctx := context.Background()
	q, err := New[int](4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Put(ctx, i))
	}
	_, err = q.Get(ctx)
	require.NoError(t, err)

	q.HandleError("test")
	assert.Equal(t, []int{1, 2}, q.Close())
	assert.Equal(t, 0, q.Len())
}
