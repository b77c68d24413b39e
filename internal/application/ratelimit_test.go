package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/internal/domain/model"
)

func TestRateLimiterAdmitsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)

	base := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	current := base
	var mu sync.Mutex
	limiter.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))

	// A third acquire inside the same window must block until cancelled.
	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(blockedCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRateLimitTimeout)

	// Once the first admission ages out of the window, a slot frees up.
	mu.Lock()
	current = base.Add(61 * time.Second)
	mu.Unlock()
	require.NoError(t, limiter.Acquire(ctx))
}

func TestRateLimiterRollingWindowBound(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)

	base := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	current := base
	var mu sync.Mutex
	limiter.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	ctx := context.Background()
	var admissions []time.Time

	// Admit in bursts across simulated time and verify no rolling window of
	// one minute ever sees more than the limit.
	for step := 0; step < 30; step++ {
		mu.Lock()
		current = base.Add(time.Duration(step) * 13 * time.Second)
		now := current
		mu.Unlock()

		acquireCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		if err := limiter.Acquire(acquireCtx); err == nil {
			admissions = append(admissions, now)
		}
		cancel()
	}

	for _, windowStart := range admissions {
		count := 0
		for _, at := range admissions {
			if !at.Before(windowStart) && at.Before(windowStart.Add(time.Minute)) {
				count++
			}
		}
		assert.LessOrEqual(t, count, 5, "rolling window starting at %v", windowStart)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Disabled limiters never block, even under a cancelled context.
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
}

func TestRateLimiterTimeoutError(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRateLimitTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
