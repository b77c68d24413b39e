package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/internal/domain/model"
)

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"today", "day", "week"} {
		mode, err := model.ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, model.Mode(valid), mode)
	}

	_, err := model.ParseMode("month")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidMode)

	_, err = model.ParseMode("")
	assert.ErrorIs(t, err, model.ErrInvalidMode)
}

func TestDefaultMode(t *testing.T) {
	// 2026-03-09 is a Monday in UTC+8.
	monday := time.Date(2026, 3, 9, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, model.ModeWeek, model.DefaultMode(monday))

	tuesday := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, model.ModeDay, model.DefaultMode(tuesday))
}

func TestDefaultModeLocalDayOffset(t *testing.T) {
	// 17:00 UTC on a Sunday is already 01:00 Monday in UTC+8.
	sundayUTC := time.Date(2026, 3, 8, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, model.ModeWeek, model.DefaultMode(sundayUTC))

	// 15:00 UTC the same day is still 23:00 Sunday locally.
	earlier := time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, model.ModeDay, model.DefaultMode(earlier))
}

func TestResolveWindowToday(t *testing.T) {
	// Wednesday 2026-03-11 10:30 UTC = 18:30 local; local midnight is
	// 2026-03-11 00:00 UTC+8 = 2026-03-10 16:00 UTC.
	ref := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

	win, err := model.ResolveWindow(model.ModeToday, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, ref, win.End)
}

func TestResolveWindowDay(t *testing.T) {
	ref := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

	win, err := model.ResolveWindow(model.ModeDay, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), win.End)
	assert.Equal(t, 24*time.Hour, win.Duration())
}

func TestResolveWindowWeek(t *testing.T) {
	// The local Monday before a Wednesday reference is 2026-03-09; the window
	// is the previous Monday-to-Monday week in local time.
	ref := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

	win, err := model.ResolveWindow(model.ModeWeek, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC), win.End)
	assert.Equal(t, 7*24*time.Hour, win.Duration())
}

func TestResolveWindowWeekOnMonday(t *testing.T) {
	// Invoked on a local Monday, the week window covers the week that just
	// ended, not the week containing the reference.
	ref := time.Date(2026, 3, 9, 1, 0, 0, 0, time.UTC) // Monday 09:00 local

	win, err := model.ResolveWindow(model.ModeWeek, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC), win.End)
}

func TestResolveWindowInvalidMode(t *testing.T) {
	_, err := model.ResolveWindow(model.Mode("year"), time.Now())
	assert.ErrorIs(t, err, model.ErrInvalidMode)
}

func TestResolveWindowDeterministic(t *testing.T) {
	ref := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)
	first, err := model.ResolveWindow(model.ModeWeek, ref)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := model.ResolveWindow(model.ModeWeek, ref)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTimeWindowContains(t *testing.T) {
	win := model.TimeWindow{
		Start: time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC),
	}

	assert.True(t, win.Contains(win.Start), "start boundary is inclusive")
	assert.False(t, win.Contains(win.End), "end boundary is exclusive")
	assert.True(t, win.Contains(win.Start.Add(time.Hour)))
	assert.False(t, win.Contains(win.Start.Add(-time.Nanosecond)))
}
