package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/user/onboardflow/internal/adapter/mailer"
	"github.com/user/onboardflow/internal/adapter/metrics"
	"github.com/user/onboardflow/internal/adapter/repository/postgres"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/pkg/config"
	"github.com/user/onboardflow/internal/pkg/logger"
	"github.com/user/onboardflow/internal/usecase"
)

// The sweeper is a standalone worker for deployments without an external
// scheduler hitting the cron endpoints. Run one instance; the tag guard makes
// an accidental second instance mostly harmless but wasteful.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting sweep worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping sweeper...")
		cancel()
	}()

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	tenants := postgres.NewTenantRepository(db, log)
	users := postgres.NewEndUserRepository(db, log)

	var mail domain.Mailer
	switch cfg.MailProvider {
	case "resend":
		mail = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.ResendBaseURL, log)
	default:
		mail = mailer.NewStdoutMailer(log)
	}

	m := metrics.NewEngineMetrics()
	dispatcher := usecase.NewDispatcher(users, mail, log, m, cfg.MailFrom)
	sweep := usecase.NewSweepUseCase(tenants, users, dispatcher, log, m)

	opts := usecase.SweepOptions{
		Step1Delay:     cfg.Step1Delay,
		LaterStepDelay: cfg.LaterStepDelay,
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	log.Info("sweep worker started", "interval", cfg.SweepInterval)

Loop:
	for {
		select {
		case <-ticker.C:
			res, err := sweep.Run(ctx, opts)
			if err != nil {
				log.Error("sweep failed", "error", err)
				continue
			}
			log.Info("sweep complete",
				"tenants_scanned", res.TenantsScanned,
				"candidates_found", res.CandidatesFound,
				"emails_sent", res.EmailsSent,
			)
		case <-ctx.Done():
			log.Info("context cancelled, shutting down sweep loop")
			break Loop
		}
	}

	log.Info("sweep worker shut down gracefully")
}
