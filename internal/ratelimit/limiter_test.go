package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstAdmitsExactlyCapacity(t *testing.T) {
	const capacity = 5
	limiter := New(capacity)

	// A freshly constructed bucket banks its full burst: exactly capacity
	// acquisitions succeed without waiting.
	for i := 0; i < capacity; i++ {
		assert.True(t, limiter.TryAcquire(), "acquisition %d should not block", i+1)
	}

	// The (capacity+1)-th caller finds an empty bucket.
	assert.False(t, limiter.TryAcquire())
}

func TestLimiter_TokensNeverExceedCapacity(t *testing.T) {
	limiter := New(10)

	// Saturating refill: idle time cannot bank more than the capacity.
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, limiter.Tokens(), float64(limiter.Capacity()))
	assert.GreaterOrEqual(t, limiter.Tokens(), 0.0)
}

func TestLimiter_AcquireSleepsWhenExhausted(t *testing.T) {
	// 60/min = 1 token/sec, so after draining the burst the next acquire
	// has to wait for a refill.
	limiter := New(60)
	ctx := context.Background()

	for i := 0; i < limiter.Capacity(); i++ {
		require.True(t, limiter.TryAcquire())
	}

	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond,
		"acquire on an empty bucket should measurably sleep")
}

func TestLimiter_AcquireHonorsContextCancellation(t *testing.T) {
	limiter := New(60)
	for i := 0; i < limiter.Capacity(); i++ {
		require.True(t, limiter.TryAcquire())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_DefaultsInvalidBudget(t *testing.T) {
	assert.Equal(t, 60, New(0).Capacity())
	assert.Equal(t, 60, New(-5).Capacity())
}

func TestLimiter_ConcurrentAcquirersShareOnePool(t *testing.T) {
	const capacity = 4
	limiter := New(capacity)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, capacity)
	for i := 0; i < capacity; i++ {
		go func() {
			done <- limiter.Acquire(ctx)
		}()
	}

	for i := 0; i < capacity; i++ {
		require.NoError(t, <-done)
	}

	// The shared pool is now drained for everyone.
	assert.False(t, limiter.TryAcquire())
}
