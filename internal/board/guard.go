package board

import (
	"context"
	"sync"
	"time"
)

// Guard runs on every inbound request and catches boundaries the scheduler
// slept through, e.g. when the process was restarted across 9:00 or 21:00.
// It keys on the slot token: the first request observing a new slot while
// the window is closed triggers one synchronous sweep; later requests in
// the same slot are no-ops. Crossing into an open window records the slot
// without sweeping, since sweeps belong to window closings. The slot is
// process-local only; a restart starts over from the wall clock.
type Guard struct {
	clock   *Clock
	sweeper Sweeper

	mu       sync.Mutex
	lastSlot string
}

// NewGuard returns a guard with no observed slot.
func NewGuard(clock *Clock, sweeper Sweeper) *Guard {
	return &Guard{clock: clock, sweeper: sweeper}
}

// Observe checks whether a slot boundary was crossed since the last call
// and runs the missed sweep if one is due. When the sweep fails the slot is
// not recorded, so the next request retries it. The mutex serializes
// concurrent first requests; only one of them sweeps.
func (g *Guard) Observe(ctx context.Context, now time.Time) error {
	slot := g.clock.Slot(now)

	g.mu.Lock()
	defer g.mu.Unlock()
	if slot == g.lastSlot {
		return nil
	}
	if !g.clock.WindowOpen(now) {
		if err := g.sweeper.Clear(ctx, TriggerCatchUp); err != nil {
			return err
		}
	}
	g.lastSlot = slot
	return nil
}

// LastSlot returns the most recently recorded slot token, or "" before the
// first observation.
func (g *Guard) LastSlot() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSlot
}
