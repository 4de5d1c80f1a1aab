package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/user/onboardflow/internal/domain"
)

// FunnelSettings carries the mutable funnel configuration from the settings
// form.
type FunnelSettings struct {
	AutomationEnabled bool `json:"automationEnabled"`

	ActivationStep string `json:"activationStep"`
	EmailSubject   string `json:"emailSubject"`
	EmailBody      string `json:"emailBody"`

	Step2         string `json:"step2"`
	EmailSubject2 string `json:"emailSubject2"`
	EmailBody2    string `json:"emailBody2"`

	Step3         string `json:"step3"`
	EmailSubject3 string `json:"emailSubject3"`
	EmailBody3    string `json:"emailBody3"`
}

// SettingsUseCase reads and mutates a tenant's funnel configuration and API
// key.
type SettingsUseCase struct {
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewSettingsUseCase creates a new settings use case.
func NewSettingsUseCase(tenants domain.TenantRepository, logger *slog.Logger) *SettingsUseCase {
	return &SettingsUseCase{tenants: tenants, logger: logger}
}

// Update applies the settings form to the tenant and persists it.
func (uc *SettingsUseCase) Update(ctx context.Context, tenant *domain.Tenant, s FunnelSettings) error {
	tenant.AutomationEnabled = s.AutomationEnabled
	tenant.ActivationStep = s.ActivationStep
	tenant.EmailSubject = s.EmailSubject
	tenant.EmailBody = s.EmailBody
	tenant.Step2 = s.Step2
	tenant.EmailSubject2 = s.EmailSubject2
	tenant.EmailBody2 = s.EmailBody2
	tenant.Step3 = s.Step3
	tenant.EmailSubject3 = s.EmailSubject3
	tenant.EmailBody3 = s.EmailBody3

	if err := uc.tenants.UpdateSettings(ctx, tenant); err != nil {
		uc.logger.Error("failed to update settings", "error", err, "tenant_id", tenant.ID)
		return fmt.Errorf("updating settings: %w", err)
	}
	uc.logger.Info("settings updated", "tenant_id", tenant.ID, "automation_enabled", s.AutomationEnabled)
	return nil
}

// SetActivationStep updates only the step-1 goal event. Used by the
// API-key-authenticated config endpoint.
func (uc *SettingsUseCase) SetActivationStep(ctx context.Context, tenant *domain.Tenant, step string) error {
	tenant.ActivationStep = step
	if err := uc.tenants.UpdateSettings(ctx, tenant); err != nil {
		return fmt.Errorf("updating activation step: %w", err)
	}
	return nil
}

// RotateAPIKey mints a fresh key for the tenant and persists it. The old key
// stops resolving once any cache entry expires.
func (uc *SettingsUseCase) RotateAPIKey(ctx context.Context, tenant *domain.Tenant) (string, error) {
	key, err := NewAPIKey()
	if err != nil {
		return "", err
	}
	if err := uc.tenants.RotateAPIKey(ctx, tenant.ID, key); err != nil {
		uc.logger.Error("failed to rotate api key", "error", err, "tenant_id", tenant.ID)
		return "", fmt.Errorf("rotating api key: %w", err)
	}
	uc.logger.Info("api key rotated", "tenant_id", tenant.ID)
	return key, nil
}

// NewAPIKey generates an opaque sk_live_ ingestion key.
func NewAPIKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return "sk_live_" + hex.EncodeToString(buf), nil
}
