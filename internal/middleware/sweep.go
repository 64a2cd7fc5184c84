package middleware

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dstav/slate/internal/board"
)

// Sweep wires the board lifecycle into the request path. The first request
// ever arms the background scheduler (Start is idempotent under concurrent
// requests), and every request runs the catch-up guard so a boundary
// crossed while the process was down is swept before any handler logic.
//
// lifecycle is the process-scoped context: an in-flight catch-up sweep must
// not die with the request that happened to trigger it, and the scheduler
// loop stops when the process shuts down. A failed guard sweep is logged
// and the request proceeds; the next request retries it.
func Sweep(lifecycle context.Context, guard *board.Guard, sched *board.Scheduler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sched.Start(lifecycle)
			if err := guard.Observe(lifecycle, time.Now()); err != nil {
				log.Printf("board: catch-up clear failed: %v", err)
			}
			return next(c)
		}
	}
}
