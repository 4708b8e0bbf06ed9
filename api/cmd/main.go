package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cityagenda/event-platform/internal/audit"
	"github.com/cityagenda/event-platform/internal/config"
	"github.com/cityagenda/event-platform/internal/infrastructure/postgres"
	"github.com/cityagenda/event-platform/internal/infrastructure/redis"
	"github.com/cityagenda/event-platform/internal/infrastructure/stats"
	"github.com/cityagenda/event-platform/internal/logger"
	"github.com/cityagenda/event-platform/internal/security"
	"github.com/cityagenda/event-platform/internal/service"
	"github.com/cityagenda/event-platform/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "event-platform").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := pgxpool.New(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool create failed")
	}
	defer dbPool.Close()

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		defer cancel()

		if err := dbPool.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")
	}

	repo := postgres.New(dbPool)

	// ---- Redis ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		// Best-effort ping; redis only backs the views cache and rate limit
		if err := cache.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Popularity provider ----
	statsClient := stats.New(cfg.StatsBaseURL, cfg.StatsTimeout)
	if cfg.StatsBaseURL == "" {
		log.Info().Msg("stats service not configured, view counters stay at zero")
	}

	// ---- Application services ----
	auditLog := audit.New(log)
	events := service.NewEventService(repo, repo, repo, statsClient, cache, service.SystemClock(), auditLog, cfg.ViewsCacheTTL)
	requests := service.NewRequestService(repo, repo, repo, auditLog)
	h := rest.NewHandler(events, requests)

	// ---- JWT verifier ----
	verifier := security.NewHS256Verifier(cfg.JWTSecret)

	// ---- Router ----
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Cache:            cache,
		Handler:          h,
		Verifier:         verifier,
		JWTIssuer:        cfg.JWTIssuer,
		RateLimitEnabled: cfg.RLEnabled,
		RateLimit:        cfg.RLLimit,
		RateLimitWindow:  cfg.RLWindow,
	})

	// ---- Outbox worker (outbound event.* / request.* notifications) ----
	if cfg.OutboxEnabled {
		repo.StartOutboxWorker(rootCtx, cfg.RabbitURL, cfg.RabbitExchange)
		log.Info().Msg("outbox worker started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
