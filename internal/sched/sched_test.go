package sched

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElevate(t *testing.T) {
	done := make(chan struct{})
	var (
		nice int
		err  error
	)

	// Run on a throwaway goroutine so the locked thread is retired afterwards.
	go func() {
		defer close(done)
		nice, err = Elevate()
	}()
	<-done

	if runtime.GOOS != "linux" {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	if err != nil {
		// Unprivileged and already at a positive nice value.
		t.Skipf("priority change not permitted: %v", err)
	}
	assert.LessOrEqual(t, nice, 0)
	assert.GreaterOrEqual(t, nice, -20)
}
