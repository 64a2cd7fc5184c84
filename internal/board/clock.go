// Package board implements the lifecycle of the shared note feed: the
// daily posting window, the twice-daily sweep that empties the feed, the
// background scheduler that fires the sweep at 9:00 and 21:00 local time,
// and the per-request guard that catches up on boundaries missed while the
// process was down.
package board

import (
	"errors"
	"fmt"
	"time"
)

// ErrWindowClosed is returned when a write arrives outside the posting
// window. Handlers map it to 403.
var ErrWindowClosed = errors.New("posting window closed")

// Boundary hours of the posting window in the board's local timezone.
// Notes may be posted in [OpenHour, CloseHour); the feed is swept at both
// instants.
const (
	OpenHour  = 9
	CloseHour = 21
)

// minBoundaryDelay is the floor applied to boundary arithmetic so a timer
// armed exactly on a boundary never gets a zero or negative duration.
const minBoundaryDelay = 5 * time.Second

// Clock evaluates the posting window in a fixed timezone. All methods take
// an explicit instant and are side-effect free.
type Clock struct {
	loc *time.Location
}

// NewClock returns a Clock evaluating window rules in loc.
func NewClock(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

// WindowOpen reports whether notes may be posted at the given instant.
func (c *Clock) WindowOpen(now time.Time) bool {
	h := now.In(c.loc).Hour()
	return h >= OpenHour && h < CloseHour
}

// CheckOpen returns ErrWindowClosed when the instant falls outside the
// posting window.
func (c *Clock) CheckOpen(now time.Time) error {
	if !c.WindowOpen(now) {
		return ErrWindowClosed
	}
	return nil
}

// Slot partitions each calendar day into three segments and returns a token
// that is stable within a segment and distinct across segments and dates,
// e.g. "2026-08-28-day". The guard uses it to deduplicate catch-up sweeps.
func (c *Clock) Slot(now time.Time) string {
	local := now.In(c.loc)
	date := local.Format("2006-01-02")
	switch {
	case local.Hour() < OpenHour:
		return fmt.Sprintf("%s-pre%d", date, OpenHour)
	case local.Hour() < CloseHour:
		return date + "-day"
	default:
		return fmt.Sprintf("%s-post%d", date, CloseHour)
	}
}

// UntilNextBoundary returns the time until the next window boundary
// strictly after now. Boundaries are irregularly spaced in principle, so
// the next instant is always recomputed rather than assumed periodic. The
// result never falls below minBoundaryDelay.
func (c *Clock) UntilNextBoundary(now time.Time) time.Duration {
	local := now.In(c.loc)
	y, m, d := local.Date()
	targets := []time.Time{
		time.Date(y, m, d, OpenHour, 0, 0, 0, c.loc),
		time.Date(y, m, d, CloseHour, 0, 0, 0, c.loc),
	}
	var next time.Time
	for _, t := range targets {
		if t.After(local) {
			next = t
			break
		}
	}
	if next.IsZero() {
		next = time.Date(y, m, d+1, OpenHour, 0, 0, 0, c.loc)
	}
	delay := next.Sub(local)
	if delay < minBoundaryDelay {
		return minBoundaryDelay
	}
	return delay
}
