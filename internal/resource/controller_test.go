package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	err = c.AcquireMemory(20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(90), c.MemoryPeak())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Equal(t, int64(1000), c.MemoryPeak())
}

func TestController_NilChecks(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10) // Should not panic
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.MemoryPeak())
	assert.Zero(t, c.MemoryLimit())
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestController_IOLimit(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})

	// The bucket starts full.
	require.NoError(t, c.AcquireIO(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 10))
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}
