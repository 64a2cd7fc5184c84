package main // Entry point package

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dstav/slate/internal/blob"
	"github.com/dstav/slate/internal/board"
	"github.com/dstav/slate/internal/config"
	"github.com/dstav/slate/internal/database"
	"github.com/dstav/slate/internal/handler"
	"github.com/dstav/slate/internal/middleware"
	"github.com/dstav/slate/internal/queue"
	"github.com/dstav/slate/internal/repository"
	"github.com/dstav/slate/internal/router"
	queue_publisher "github.com/dstav/slate/internal/service"
)

func main() {
	_ = godotenv.Load() // optional; real env wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	blobs, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q, using UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}

	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)

	clock := board.NewClock(loc)
	clearer := &board.Clearer{
		DB:      db,
		Notes:   notes,
		Users:   users,
		Blobs:   blobs,
		Publish: queue_publisher.PublishBoardCleared,
	}
	sched := board.NewScheduler(clock, clearer)
	guard := board.NewGuard(clock, clearer)

	// Lifecycle context: cancellation stops the sweep loop and abandons any
	// pending timer; the guard re-derives missed boundaries on next start.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := queue.StartBoardConsumer(); err != nil {
			log.Printf("board consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.Sweep(ctx, guard, sched))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// The response cache keys on the authenticated username, so it mounts
	// inside the board group behind JWTAuth rather than globally.
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, users)
	noteHandler := handler.NewNoteHandler(db, notes, clock, blobs)
	uploadHandler := handler.NewUploadHandler(blobs)
	adminHandler := handler.NewAdminHandler(cfg, db, users, notes, blobs)

	router.RegisterRoutes(e, authHandler)
	router.RegisterBoard(e, authHandler, noteHandler, uploadHandler, cfg.JWTSecret, cache)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)
	e.Static("/uploads", blobs.Dir()) // read-only blob serving

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, tz=%s)", addr, cfg.Env, loc)

	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
