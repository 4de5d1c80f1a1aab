package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/onboardflow/internal/adapter/api"
	"github.com/user/onboardflow/internal/adapter/mailer"
	"github.com/user/onboardflow/internal/adapter/metrics"
	"github.com/user/onboardflow/internal/adapter/repository/postgres"
	redisrepo "github.com/user/onboardflow/internal/adapter/repository/redis"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/pkg/config"
	"github.com/user/onboardflow/internal/pkg/logger"
	"github.com/user/onboardflow/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewEngineMetrics()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(),
	}
	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")

	// --- Repositories ---
	var tenants domain.TenantRepository = postgres.NewTenantRepository(db, logger)
	users := postgres.NewEndUserRepository(db, logger)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, tenant cache disabled", "error", err)
		} else {
			tenants = redisrepo.NewTenantCache(tenants, redisClient, logger, cfg.TenantCacheTTL)
			logger.Info("tenant cache enabled", "ttl", cfg.TenantCacheTTL)
		}
	}

	// --- Mailer ---
	var mail domain.Mailer
	switch cfg.MailProvider {
	case "resend":
		mail = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.ResendBaseURL, logger)
	default:
		mail = mailer.NewStdoutMailer(logger)
	}
	logger.Info("mailer configured", "provider", cfg.MailProvider)

	// --- Use Cases ---
	dispatcher := usecase.NewDispatcher(users, mail, logger, m, cfg.MailFrom)
	useCases := api.UseCases{
		Ingest:    usecase.NewIngestEventUseCase(users, logger, m),
		Nudge:     usecase.NewManualNudgeUseCase(users, dispatcher, logger),
		Sweep:     usecase.NewSweepUseCase(tenants, users, dispatcher, logger, m),
		Settings:  usecase.NewSettingsUseCase(tenants, logger),
		Analytics: usecase.NewAnalyticsUseCase(users),
		Auth:      usecase.NewAuthUseCase(tenants, logger, cfg.JWTSecret, cfg.SessionTTL),
		Billing:   usecase.NewBillingUseCase(tenants, logger),
	}

	// --- API Server ---
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      api.NewRouter(cfg, logger, tenants, useCases),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
