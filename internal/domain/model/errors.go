package model

import "errors"

// Error taxonomy for an analysis run. Only ErrInvalidMode and
// ErrSourceUnavailable abort a run; every other kind is recovered locally and
// degrades the affected item. Callers branch with errors.Is.
var (
	// ErrInvalidMode indicates an unknown time-window mode.
	ErrInvalidMode = errors.New("invalid window mode")

	// ErrSourceUnavailable indicates a list fetch exhausted its retries.
	// A partial issue/PR list is worse than no report, so this is fatal.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrDetailUnavailable indicates a per-PR detail fetch exhausted its
	// retries. The item proceeds with zeroed detail fields.
	ErrDetailUnavailable = errors.New("pull request detail unavailable")

	// ErrRateLimitTimeout indicates a scoring call could not acquire a
	// rate-limiter token before its deadline.
	ErrRateLimitTimeout = errors.New("rate limit acquisition timed out")

	// ErrInvalidScoringResponse indicates the scoring response was missing
	// dimensions, malformed, or out of range.
	ErrInvalidScoringResponse = errors.New("invalid scoring response")
)
