package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// RateLimiter admits at most n calls in any rolling window of the given
// period. Admission timestamps are kept in a sliding log so the bound holds
// over every window, not just fixed buckets.
type RateLimiter struct {
	n      int
	period time.Duration

	mu       sync.Mutex
	admitted []time.Time

	now func() time.Time // Overridable in tests.
}

// NewRateLimiter creates a limiter allowing n admissions per period. A
// non-positive n disables limiting.
func NewRateLimiter(n int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		n:      n,
		period: period,
		now:    time.Now,
	}
}

// Acquire blocks until an admission slot is available or the context ends.
// Context expiry while waiting surfaces as model.ErrRateLimitTimeout.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if r.n <= 0 {
		return nil
	}

	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)

		if len(r.admitted) < r.n {
			r.admitted = append(r.admitted, now)
			r.mu.Unlock()
			return nil
		}

		// Wait until the oldest admission leaves the window, then recheck;
		// another waiter may take the freed slot first.
		wait := r.admitted[0].Add(r.period).Sub(now)
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", model.ErrRateLimitTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

// prune drops admissions older than one period. Callers hold r.mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.period)
	i := 0
	for i < len(r.admitted) && !r.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.admitted = append(r.admitted[:0], r.admitted[i:]...)
	}
}
