// Package retry provides the single retry policy shared by every external
// call site: exponential backoff up to a fixed attempt ceiling, with
// server-supplied retry-after durations honored as a floor on the next delay.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Verdict describes how a failed attempt should be handled.
type Verdict struct {
	// Retry indicates the failure is transient and worth another attempt.
	Retry bool
	// After, when positive, is a server-supplied minimum delay before the
	// next attempt (e.g. a Retry-After header or rate-limit reset).
	After time.Duration
}

// Classifier inspects an error and decides whether to retry it. A nil
// classifier retries everything except context cancellation.
type Classifier func(error) Verdict

// Policy parameterizes retry behavior for one class of external call.
type Policy struct {
	// MaxAttempts is the total attempt ceiling including the first call.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// InitialInterval seeds the exponential backoff schedule.
	InitialInterval time.Duration
	// MaxInterval bounds a single backoff delay.
	MaxInterval time.Duration
	// Classify decides retryability per error.
	Classify Classifier
}

// Do runs op under the policy, returning nil on the first success or the
// last error once attempts are exhausted, op fails permanently, or ctx ends.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		expo.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		expo.MaxInterval = p.MaxInterval
	}

	floor := &floorBackOff{inner: backoff.WithMaxRetries(expo, uint64(attempts-1))}

	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}

		verdict := p.classify(err)
		if !verdict.Retry {
			return backoff.Permanent(err)
		}
		floor.floor = verdict.After
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(floor, ctx))
}

func (p Policy) classify(err error) Verdict {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Verdict{}
	}
	if p.Classify != nil {
		return p.Classify(err)
	}
	return Verdict{Retry: true}
}

// floorBackOff raises the next delay to the server-supplied floor, then
// clears it so later delays fall back to the exponential schedule.
type floorBackOff struct {
	inner backoff.BackOff
	floor time.Duration
}

func (f *floorBackOff) NextBackOff() time.Duration {
	d := f.inner.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if f.floor > d {
		d = f.floor
	}
	f.floor = 0
	return d
}

func (f *floorBackOff) Reset() {
	f.floor = 0
	f.inner.Reset()
}
