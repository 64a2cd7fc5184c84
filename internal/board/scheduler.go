package board

import (
	"context"
	"log"
	"sync"
	"time"
)

// boundaryClock is the slice of Clock the scheduler needs; tests substitute
// a fake with short delays.
type boundaryClock interface {
	UntilNextBoundary(now time.Time) time.Duration
}

// Scheduler owns the background sweep loop. Start arms it exactly once per
// process; the loop sleeps until the next window boundary, fires the
// sweeper, and re-arms. It never assumes uniform boundary spacing and never
// stops over a failed sweep; a failed clear is retried at the next
// boundary. No state is persisted: after a restart the loop re-derives its
// next fire time from the wall clock, and the guard covers any boundary
// crossed while the process was down.
type Scheduler struct {
	clock   boundaryClock
	sweeper Sweeper
	now     func() time.Time

	mu    sync.Mutex
	armed bool
}

// NewScheduler returns an unarmed scheduler.
func NewScheduler(clock boundaryClock, sweeper Sweeper) *Scheduler {
	return &Scheduler{clock: clock, sweeper: sweeper, now: time.Now}
}

// Start launches the sweep loop. Only the first call has any effect;
// concurrent first requests racing into Start arm a single loop. The loop
// exits when ctx is cancelled, abandoning any pending timer.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return
	}
	s.armed = true
	go s.run(ctx)
}

// Armed reports whether the loop has been started.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		delay := s.clock.UntilNextBoundary(s.now())
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := s.sweeper.Clear(ctx, TriggerSchedule); err != nil {
			log.Printf("board: scheduled clear failed: %v", err)
		}
	}
}
