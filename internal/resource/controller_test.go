package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err := c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())

	st := c.Stats()
	assert.Equal(t, int64(60), st.MemoryUsed)
	assert.Equal(t, int64(100), st.MemoryLimit)
	assert.Equal(t, int64(90), st.PeakMemory)
	assert.Equal(t, int64(1), st.Rejected)
}

func TestController_ResizeMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.ResizeMemory(0, 64))
	require.NoError(t, c.ResizeMemory(64, 96))
	assert.Equal(t, int64(96), c.MemoryUsage())

	assert.ErrorIs(t, c.ResizeMemory(96, 128), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(96), c.MemoryUsage())

	require.NoError(t, c.ResizeMemory(96, 10))
	assert.Equal(t, int64(10), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
}

func TestController_ConcurrentMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 1000})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if c.AcquireMemory(10) == nil {
					c.ReleaseMemory(10)
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, c.MemoryUsage())
}

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})
	assert.Equal(t, 2, c.MaxBackgroundWorkers())

	require.NoError(t, c.AcquireBackground(t.Context()))
	require.NoError(t, c.AcquireBackground(t.Context()))

	assert.False(t, c.TryAcquireBackground())

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBackground(ctx), context.DeadlineExceeded)

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// The bucket starts full.
	assert.True(t, c.TryAcquireIO(1000))
	assert.False(t, c.TryAcquireIO(1000))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 10))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(1<<40))
	c.ReleaseMemory(1 << 40)
	assert.NoError(t, c.ResizeMemory(0, 1<<40))
	assert.Zero(t, c.MemoryUsage())
	assert.Equal(t, Stats{}, c.Stats())
	assert.NoError(t, c.AcquireBackground(t.Context()))
	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
	assert.NoError(t, c.AcquireIO(t.Context(), 1<<30))
	assert.True(t, c.TryAcquireIO(1<<30))
	assert.Equal(t, 1, c.MaxBackgroundWorkers())
}
