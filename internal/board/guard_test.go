package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu       sync.Mutex
	triggers []string
	err      error
}

func (f *fakeSweeper) Clear(ctx context.Context, trigger string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.triggers = append(f.triggers, trigger)
	return nil
}

func (f *fakeSweeper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func TestGuard_CatchUpAfterRestart(t *testing.T) {
	loc := chicago(t)
	sweeper := &fakeSweeper{}
	g := NewGuard(NewClock(loc), sweeper)

	// Process starts at 05:30 with no observed slot: the pre9 window is
	// closed, so the first request sweeps once.
	now := at(t, loc, 5, 30, 0)
	require.NoError(t, g.Observe(context.Background(), now))
	assert.Equal(t, 1, sweeper.calls())
	assert.Equal(t, []string{TriggerCatchUp}, sweeper.triggers)
	assert.Equal(t, "2026-03-17-pre9", g.LastSlot())

	// A second immediate request observes the same slot and does nothing.
	require.NoError(t, g.Observe(context.Background(), now.Add(time.Second)))
	assert.Equal(t, 1, sweeper.calls())
}

func TestGuard_OpenWindowTransitionDoesNotSweep(t *testing.T) {
	loc := chicago(t)
	sweeper := &fakeSweeper{}
	g := NewGuard(NewClock(loc), sweeper)

	require.NoError(t, g.Observe(context.Background(), at(t, loc, 5, 30, 0)))
	assert.Equal(t, 1, sweeper.calls())

	// Crossing 9:00 moves into an open window: slot advances but no sweep,
	// since sweeps belong to window closings.
	require.NoError(t, g.Observe(context.Background(), at(t, loc, 9, 30, 0)))
	assert.Equal(t, 1, sweeper.calls())
	assert.Equal(t, "2026-03-17-day", g.LastSlot())

	// Crossing 21:00 closes the window again: exactly one more sweep.
	require.NoError(t, g.Observe(context.Background(), at(t, loc, 21, 0, 5)))
	assert.Equal(t, 2, sweeper.calls())
	assert.Equal(t, "2026-03-17-post21", g.LastSlot())
}

func TestGuard_StartInOpenWindowRecordsWithoutSweep(t *testing.T) {
	loc := chicago(t)
	sweeper := &fakeSweeper{}
	g := NewGuard(NewClock(loc), sweeper)

	// First observation lands mid-window: nothing to catch up.
	require.NoError(t, g.Observe(context.Background(), at(t, loc, 9, 30, 0)))
	assert.Equal(t, 0, sweeper.calls())
	assert.Equal(t, "2026-03-17-day", g.LastSlot())
}

func TestGuard_RetriesWhenSweepFails(t *testing.T) {
	loc := chicago(t)
	sweeper := &fakeSweeper{err: errors.New("db down")}
	g := NewGuard(NewClock(loc), sweeper)

	now := at(t, loc, 22, 0, 0)
	assert.Error(t, g.Observe(context.Background(), now))
	// Slot was not recorded, so the next request retries the sweep.
	assert.Equal(t, "", g.LastSlot())

	sweeper.mu.Lock()
	sweeper.err = nil
	sweeper.mu.Unlock()
	require.NoError(t, g.Observe(context.Background(), now.Add(time.Minute)))
	assert.Equal(t, 1, sweeper.calls())
	assert.Equal(t, "2026-03-17-post21", g.LastSlot())
}

func TestGuard_ConcurrentFirstRequestsSweepOnce(t *testing.T) {
	loc := chicago(t)
	sweeper := &fakeSweeper{}
	g := NewGuard(NewClock(loc), sweeper)

	now := at(t, loc, 22, 0, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Observe(context.Background(), now)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, sweeper.calls())
}
