package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/user/onboardflow/internal/domain"
)

const apiKeyPrefix = "tenant:apikey:"

// TenantCache decorates a domain.TenantRepository with a Redis read-through
// cache for API-key lookups, the hot path on event ingestion. Every other
// method delegates to the inner repository; the mutating ones invalidate.
//
// Cache errors are never surfaced: a failing Redis degrades to plain
// database lookups.
type TenantCache struct {
	inner  domain.TenantRepository
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewTenantCache creates a new caching decorator.
func NewTenantCache(inner domain.TenantRepository, client *redis.Client, logger *slog.Logger, ttl time.Duration) *TenantCache {
	return &TenantCache{
		inner:  inner,
		client: client,
		logger: logger.With("component", "tenant_cache"),
		ttl:    ttl,
	}
}

// cachedTenant is the subset of tenant state stored in Redis. The secrets
// (password hash, license key) never leave the database.
type cachedTenant struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	APIKey            string    `json:"api_key"`
	HasAccess         bool      `json:"has_access"`
	AutomationEnabled bool      `json:"automation_enabled"`
	ActivationStep    string    `json:"activation_step"`
	EmailSubject      string    `json:"email_subject"`
	EmailBody         string    `json:"email_body"`
	Step2             string    `json:"step2"`
	EmailSubject2     string    `json:"email_subject2"`
	EmailBody2        string    `json:"email_body2"`
	Step3             string    `json:"step3"`
	EmailSubject3     string    `json:"email_subject3"`
	EmailBody3        string    `json:"email_body3"`
	CreatedAt         time.Time `json:"created_at"`
}

func toCached(t *domain.Tenant) cachedTenant {
	return cachedTenant{
		ID: t.ID, Email: t.Email, Name: t.Name, APIKey: t.APIKey,
		HasAccess: t.HasAccess, AutomationEnabled: t.AutomationEnabled,
		ActivationStep: t.ActivationStep, EmailSubject: t.EmailSubject, EmailBody: t.EmailBody,
		Step2: t.Step2, EmailSubject2: t.EmailSubject2, EmailBody2: t.EmailBody2,
		Step3: t.Step3, EmailSubject3: t.EmailSubject3, EmailBody3: t.EmailBody3,
		CreatedAt: t.CreatedAt,
	}
}

func (c cachedTenant) toDomain() *domain.Tenant {
	return &domain.Tenant{
		ID: c.ID, Email: c.Email, Name: c.Name, APIKey: c.APIKey,
		HasAccess: c.HasAccess, AutomationEnabled: c.AutomationEnabled,
		ActivationStep: c.ActivationStep, EmailSubject: c.EmailSubject, EmailBody: c.EmailBody,
		Step2: c.Step2, EmailSubject2: c.EmailSubject2, EmailBody2: c.EmailBody2,
		Step3: c.Step3, EmailSubject3: c.EmailSubject3, EmailBody3: c.EmailBody3,
		CreatedAt: c.CreatedAt,
	}
}

func (r *TenantCache) GetByAPIKey(ctx context.Context, key string) (*domain.Tenant, error) {
	raw, err := r.client.Get(ctx, apiKeyPrefix+key).Bytes()
	if err == nil {
		var c cachedTenant
		if err := json.Unmarshal(raw, &c); err == nil {
			return c.toDomain(), nil
		}
		r.logger.Warn("dropping corrupt cache entry", "key", key)
		r.client.Del(ctx, apiKeyPrefix+key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed, falling through to database", "error", err)
	}

	tenant, err := r.inner.GetByAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(toCached(tenant)); err == nil {
		if err := r.client.Set(ctx, apiKeyPrefix+key, raw, r.ttl).Err(); err != nil {
			r.logger.Warn("cache write failed", "error", err)
		}
	}
	return tenant, nil
}

func (r *TenantCache) invalidate(ctx context.Context, apiKey string) {
	if apiKey == "" {
		return
	}
	if err := r.client.Del(ctx, apiKeyPrefix+apiKey).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", "error", err, "key", apiKey)
	}
}

func (r *TenantCache) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *TenantCache) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *TenantCache) ListAutomationEnabled(ctx context.Context) ([]domain.Tenant, error) {
	return r.inner.ListAutomationEnabled(ctx)
}

func (r *TenantCache) Create(ctx context.Context, t *domain.Tenant) error {
	return r.inner.Create(ctx, t)
}

func (r *TenantCache) UpdateSettings(ctx context.Context, t *domain.Tenant) error {
	if err := r.inner.UpdateSettings(ctx, t); err != nil {
		return err
	}
	r.invalidate(ctx, t.APIKey)
	return nil
}

func (r *TenantCache) UpdateAccess(ctx context.Context, id uuid.UUID, hasAccess bool, stripeCustomerID, licenseKey string) error {
	if err := r.inner.UpdateAccess(ctx, id, hasAccess, stripeCustomerID, licenseKey); err != nil {
		return err
	}
	if t, err := r.inner.GetByID(ctx, id); err == nil {
		r.invalidate(ctx, t.APIKey)
	}
	return nil
}

func (r *TenantCache) RotateAPIKey(ctx context.Context, id uuid.UUID, newKey string) error {
	// Look up the old key first so its cache entry can be dropped.
	old, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.inner.RotateAPIKey(ctx, id, newKey); err != nil {
		return err
	}
	r.invalidate(ctx, old.APIKey)
	return nil
}
