// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/workshophq/workshop-backend/internal/config"
	"github.com/workshophq/workshop-backend/internal/database"
	"github.com/workshophq/workshop-backend/internal/handler"
	"github.com/workshophq/workshop-backend/internal/middleware"
	"github.com/workshophq/workshop-backend/internal/repository"
	"github.com/workshophq/workshop-backend/internal/scheduler"
	"github.com/workshophq/workshop-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(*configPath, log); err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
}

func run(configPath string, log *zap.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ── 1. Connect to PostgreSQL and migrate ─────────────────────────────
	if err := database.Migrate(cfg.Database, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host))

	// ── 2. Wire up layers ────────────────────────────────────────────────
	workshopRepo := repository.NewWorkshopRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	attendeeRepo := repository.NewAttendeeRepository(pool)

	clock := service.SystemClock()
	workshopSvc := service.NewWorkshopService(workshopRepo, clock)
	regSvc := service.NewRegistrationService(regRepo, workshopRepo, attendeeRepo, clock)
	feedbackSvc := service.NewFeedbackService(regRepo, workshopRepo)
	attendeeSvc := service.NewAttendeeService(attendeeRepo)
	reconciler := service.NewStateReconciler(workshopRepo, clock)

	// Optional Redis response cache.
	var (
		rdb *redis.Client
		inv *middleware.Invalidator
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		inv = middleware.NewInvalidator(rdb)
		log.Info("response cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	h := handler.New(workshopSvc, regSvc, feedbackSvc, attendeeSvc, reconciler, inv)

	// ── 3. Build the router ───────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(middleware.LimiterConfig{
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
		IdleTTL: cfg.RateLimit.IdleTTL,
	})
	defer limiter.Stop()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)
	r.Use(limiter.Middleware(middleware.KeyByIP))
	if rdb != nil {
		r.Use(middleware.ResponseCache(rdb, cfg.Redis.TTL, log))
	}
	r.Mount("/", h.Routes())

	// ── 4. Start the daily reconciler ─────────────────────────────────────
	sched, err := scheduler.New(cfg.Reconciler.Schedule, reconciler, log)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()
	log.Info("reconciler scheduled", zap.String("spec", cfg.Reconciler.Schedule))

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
