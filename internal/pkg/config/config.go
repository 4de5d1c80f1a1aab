package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9091"`

	PostgresURL    string        `env:"POSTGRES_URL,required"`
	RedisAddr      string        `env:"REDIS_ADDR"` // empty disables the tenant cache
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	MailProvider  string `env:"MAIL_PROVIDER" envDefault:"stdout"` // stdout or resend
	MailFrom      string `env:"MAIL_FROM" envDefault:"OnboardFlow <onboarding@resend.dev>"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`

	JWTSecret  string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	CronSecret          string `env:"CRON_SECRET"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	Step1Delay     time.Duration `env:"STEP1_DELAY" envDefault:"1h"`
	LaterStepDelay time.Duration `env:"LATER_STEP_DELAY" envDefault:"24h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
