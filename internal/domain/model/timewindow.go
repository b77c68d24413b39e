package model

import (
	"fmt"
	"time"
)

// windowLocation is the fixed local-day convention for window boundaries.
// The scheduler runs on UTC+8 calendar days regardless of host timezone; a
// fixed zone (no DST) keeps window resolution deterministic.
var windowLocation = time.FixedZone("UTC+8", 8*60*60)

// Mode selects the time window an analysis run covers.
type Mode string

const (
	// ModeToday covers the current local day up to the invocation instant.
	ModeToday Mode = "today"
	// ModeDay covers the previous full local day.
	ModeDay Mode = "day"
	// ModeWeek covers the previous full ISO week, Monday to Monday.
	ModeWeek Mode = "week"
)

// ParseMode validates a mode string. Unknown values return ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeToday, ModeDay, ModeWeek:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// DefaultMode returns the scheduler's default mode for a reference instant:
// week on the local Monday (covering the week that just ended), day otherwise.
func DefaultMode(ref time.Time) Mode {
	if ref.In(windowLocation).Weekday() == time.Monday {
		return ModeWeek
	}
	return ModeDay
}

// TimeWindow is the half-open UTC interval [Start, End) an analysis run covers.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the half-open interval.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the window width.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// ResolveWindow maps a mode and a reference instant to a concrete UTC window
// under the fixed UTC+8 local-day convention. Pure and deterministic: every
// downstream filter depends on it and tests must reproduce exact boundaries.
func ResolveWindow(mode Mode, ref time.Time) (TimeWindow, error) {
	local := ref.In(windowLocation)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, windowLocation)

	switch mode {
	case ModeToday:
		return TimeWindow{Start: midnight.UTC(), End: ref.UTC()}, nil
	case ModeDay:
		return TimeWindow{Start: midnight.AddDate(0, 0, -1).UTC(), End: midnight.UTC()}, nil
	case ModeWeek:
		daysSinceMonday := (int(local.Weekday()) + 6) % 7
		monday := midnight.AddDate(0, 0, -daysSinceMonday)
		return TimeWindow{Start: monday.AddDate(0, 0, -7).UTC(), End: monday.UTC()}, nil
	default:
		return TimeWindow{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}
