package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute).(*memoryLimiter)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := l.Take(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, _ := l.Take(ctx, "10.0.0.1")
	assert.False(t, ok, "limit reached")

	ok, _ = l.Take(ctx, "10.0.0.2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _ = l.Take(ctx, "10.0.0.1")
	assert.True(t, ok, "window expired")

	require.NoError(t, l.Reset(ctx, "10.0.0.1"))
	require.NoError(t, l.Reset(ctx, "10.0.0.2"))
	assert.Empty(t, l.buckets)
}

func TestMemoryLimiter_concurrentTakes(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(5, time.Minute)

	var (
		wg      sync.WaitGroup
		granted int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Take(ctx, "10.0.0.1"); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted)
}
