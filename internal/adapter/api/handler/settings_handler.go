package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/usecase"
)

// SettingsService is the slice of the settings use case the handler needs.
type SettingsService interface {
	Update(ctx context.Context, tenant *domain.Tenant, s usecase.FunnelSettings) error
	RotateAPIKey(ctx context.Context, tenant *domain.Tenant) (string, error)
}

// SettingsHandler serves the founder settings endpoints.
type SettingsHandler struct {
	settings SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

type settingsResponse struct {
	usecase.FunnelSettings
	APIKey     string `json:"apiKey"`
	HasAccess  bool   `json:"hasAccess"`
	LicenseKey string `json:"licenseKey,omitempty"`
}

func settingsFrom(t *domain.Tenant) settingsResponse {
	return settingsResponse{
		FunnelSettings: usecase.FunnelSettings{
			AutomationEnabled: t.AutomationEnabled,
			ActivationStep:    t.ActivationStep,
			EmailSubject:      t.EmailSubject,
			EmailBody:         t.EmailBody,
			Step2:             t.Step2,
			EmailSubject2:     t.EmailSubject2,
			EmailBody2:        t.EmailBody2,
			Step3:             t.Step3,
			EmailSubject3:     t.EmailSubject3,
			EmailBody3:        t.EmailBody3,
		},
		APIKey:     t.APIKey,
		HasAccess:  t.HasAccess,
		LicenseKey: t.LicenseKey,
	}
}

// Get handles GET /api/v1/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, settingsFrom(tenant))
}

// Update handles POST /api/v1/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	var req usecase.FunnelSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.settings.Update(r.Context(), tenant, req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, settingsFrom(tenant))
}

// RotateKey handles POST /api/v1/keys/rotate.
func (h *SettingsHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	key, err := h.settings.RotateAPIKey(r.Context(), tenant)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "apiKey": key})
}
