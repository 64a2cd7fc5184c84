package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func at(t *testing.T, loc *time.Location, hour, min, sec int) time.Time {
	t.Helper()
	return time.Date(2026, time.March, 17, hour, min, sec, 0, loc)
}

func TestClock_WindowOpen(t *testing.T) {
	loc := chicago(t)
	c := NewClock(loc)

	tests := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"midnight", at(t, loc, 0, 0, 0), false},
		{"just before open", at(t, loc, 8, 59, 59), false},
		{"opening instant", at(t, loc, 9, 0, 0), true},
		{"midday", at(t, loc, 14, 30, 0), true},
		{"last open second", at(t, loc, 20, 59, 59), true},
		{"closing instant", at(t, loc, 21, 0, 0), false},
		{"late evening", at(t, loc, 23, 59, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, c.WindowOpen(tt.now))
		})
	}
}

func TestClock_CheckOpen(t *testing.T) {
	loc := chicago(t)
	c := NewClock(loc)

	assert.NoError(t, c.CheckOpen(at(t, loc, 12, 0, 0)))
	assert.ErrorIs(t, c.CheckOpen(at(t, loc, 21, 0, 0)), ErrWindowClosed)
	assert.ErrorIs(t, c.CheckOpen(at(t, loc, 8, 59, 59)), ErrWindowClosed)
}

func TestClock_WindowOpen_ConvertsToBoardZone(t *testing.T) {
	c := NewClock(chicago(t))

	// 15:00 UTC in March is 10:00 in Chicago (CDT): open there even though
	// the same instant is outside [9,21) in e.g. Tokyo.
	utc := time.Date(2026, time.March, 17, 15, 0, 0, 0, time.UTC)
	assert.True(t, c.WindowOpen(utc))

	// 03:00 UTC is 22:00 the previous evening in Chicago: closed.
	utc = time.Date(2026, time.March, 17, 3, 0, 0, 0, time.UTC)
	assert.False(t, c.WindowOpen(utc))
}

func TestClock_Slot(t *testing.T) {
	loc := chicago(t)
	c := NewClock(loc)

	assert.Equal(t, "2026-03-17-pre9", c.Slot(at(t, loc, 0, 0, 0)))
	assert.Equal(t, "2026-03-17-pre9", c.Slot(at(t, loc, 8, 59, 59)))
	assert.Equal(t, "2026-03-17-day", c.Slot(at(t, loc, 9, 0, 0)))
	assert.Equal(t, "2026-03-17-day", c.Slot(at(t, loc, 20, 59, 59)))
	assert.Equal(t, "2026-03-17-post21", c.Slot(at(t, loc, 21, 0, 0)))
	assert.Equal(t, "2026-03-17-post21", c.Slot(at(t, loc, 23, 59, 59)))

	// Tokens are distinct across dates, so a restart the next morning never
	// matches yesterday's slot.
	next := time.Date(2026, time.March, 18, 3, 0, 0, 0, loc)
	assert.Equal(t, "2026-03-18-pre9", c.Slot(next))
	assert.NotEqual(t, c.Slot(at(t, loc, 0, 0, 0)), c.Slot(next))
}

func TestClock_UntilNextBoundary(t *testing.T) {
	loc := chicago(t)
	c := NewClock(loc)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"five seconds before open", at(t, loc, 8, 59, 55), 5 * time.Second},
		{"just after open targets close", at(t, loc, 9, 0, 1), 11*time.Hour + 59*time.Minute + 59*time.Second},
		{"just after close targets next open", at(t, loc, 21, 0, 1), 11*time.Hour + 59*time.Minute + 59*time.Second},
		{"midnight targets open", at(t, loc, 0, 0, 0), 9 * time.Hour},
		{"noon targets close", at(t, loc, 12, 0, 0), 9 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.UntilNextBoundary(tt.now))
		})
	}
}

func TestClock_UntilNextBoundary_ClampsToFloor(t *testing.T) {
	loc := chicago(t)
	c := NewClock(loc)

	// Exactly on a boundary the next target is 12h away, but within the
	// final 5 seconds the clamp kicks in so a timer never gets ~0.
	assert.Equal(t, minBoundaryDelay, c.UntilNextBoundary(at(t, loc, 8, 59, 59)))
	assert.Equal(t, minBoundaryDelay, c.UntilNextBoundary(at(t, loc, 20, 59, 58)))
	assert.Greater(t, c.UntilNextBoundary(at(t, loc, 21, 0, 0)), time.Hour)
}
