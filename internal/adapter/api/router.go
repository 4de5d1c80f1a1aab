package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/user/onboardflow/internal/adapter/api/handler"
	"github.com/user/onboardflow/internal/adapter/api/middleware"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/pkg/config"
	"github.com/user/onboardflow/internal/usecase"
)

// stallThreshold is how long a new signup may sit on step 1 before the
// process-stalls endpoint picks it up.
const stallThreshold = time.Minute

// UseCases bundles the application services the router exposes.
type UseCases struct {
	Ingest    *usecase.IngestEventUseCase
	Nudge     *usecase.ManualNudgeUseCase
	Sweep     *usecase.SweepUseCase
	Settings  *usecase.SettingsUseCase
	Analytics *usecase.AnalyticsUseCase
	Auth      *usecase.AuthUseCase
	Billing   *usecase.BillingUseCase
}

// NewRouter creates and configures the main HTTP router.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	tenants domain.TenantRepository,
	uc UseCases,
) http.Handler {
	mux := http.NewServeMux()

	// Handlers
	ingestHandler := handler.NewIngestHandler(uc.Ingest, uc.Settings, logger)
	nudgeHandler := handler.NewNudgeHandler(uc.Nudge, logger)
	cronHandler := handler.NewCronHandler(uc.Sweep, logger, usecase.SweepOptions{
		Step1Delay:     cfg.Step1Delay,
		LaterStepDelay: cfg.LaterStepDelay,
	}, stallThreshold)
	settingsHandler := handler.NewSettingsHandler(uc.Settings, logger)
	analyticsHandler := handler.NewAnalyticsHandler(uc.Analytics, logger)
	authHandler := handler.NewAuthHandler(uc.Auth, logger)
	webhookHandler := handler.NewWebhookHandler(uc.Billing, logger, cfg.StripeWebhookSecret)

	// Middleware
	apiKeyAuth := middleware.Auth(tenants, logger)
	session := middleware.Session(tenants, cfg.JWTSecret, logger)
	cronAuth := middleware.CronAuth(cfg.CronSecret, logger)
	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	ingest := func(h http.HandlerFunc) http.Handler { return rateLimit(apiKeyAuth(h)) }

	// SDK endpoints (API key)
	mux.Handle("POST /api/v1/identify", ingest(ingestHandler.Identify))
	mux.Handle("POST /api/v1/track", ingest(ingestHandler.Track))
	mux.Handle("POST /api/v1/config", ingest(ingestHandler.Config))

	// Founder endpoints (session JWT)
	mux.Handle("POST /api/v1/nudge", session(http.HandlerFunc(nudgeHandler.Nudge)))
	mux.Handle("GET /api/v1/settings", session(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("POST /api/v1/settings", session(http.HandlerFunc(settingsHandler.Update)))
	mux.Handle("GET /api/v1/analytics", session(http.HandlerFunc(analyticsHandler.Get)))
	mux.Handle("POST /api/v1/keys/rotate", session(http.HandlerFunc(settingsHandler.RotateKey)))

	// Founder auth
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Scheduler endpoints (cron secret)
	mux.Handle("GET /api/cron/sweep", cronAuth(http.HandlerFunc(cronHandler.Sweep)))
	mux.Handle("GET /api/cron/process-stalls", cronAuth(http.HandlerFunc(cronHandler.ProcessStalls)))

	// Stripe webhook (signature-verified, no auth middleware)
	mux.HandleFunc("POST /api/webhook/stripe", webhookHandler.Stripe)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return middleware.Logging(logger)(mux)
}
