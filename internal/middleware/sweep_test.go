package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstav/slate/internal/board"
)

type countingSweeper struct {
	mu    sync.Mutex
	count int
}

func (s *countingSweeper) Clear(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return nil
}

func (s *countingSweeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func TestSweep_ArmsSchedulerAndRunsGuard(t *testing.T) {
	clock := board.NewClock(time.UTC)
	sweeper := &countingSweeper{}
	guard := board.NewGuard(clock, sweeper)
	sched := board.NewScheduler(clock, sweeper)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := echo.New()
	e.Use(Sweep(ctx, guard, sched))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.True(t, sched.Armed())
	// The guard records the first observed slot; repeated requests inside
	// the same slot never trigger extra sweeps.
	assert.NotEmpty(t, guard.LastSlot())
	assert.LessOrEqual(t, sweeper.Count(), 1)
}
