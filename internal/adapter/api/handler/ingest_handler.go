package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
)

// EventIngestor is the slice of the ingest use case the handler needs.
type EventIngestor interface {
	Identify(ctx context.Context, tenant *domain.Tenant, email, event string) (*domain.EndUser, error)
	Track(ctx context.Context, tenant *domain.Tenant, externalID, stepID string) error
}

// StepConfigurer updates the tenant's step-1 goal event.
type StepConfigurer interface {
	SetActivationStep(ctx context.Context, tenant *domain.Tenant, step string) error
}

// IngestHandler serves the API-key-authenticated SDK endpoints: identify,
// track, and config.
type IngestHandler struct {
	ingestor EventIngestor
	settings StepConfigurer
	logger   *slog.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestor EventIngestor, settings StepConfigurer, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{ingestor: ingestor, settings: settings, logger: logger}
}

type identifyRequest struct {
	Email string `json:"email"`
	Event string `json:"event"`
}

// Identify handles POST /api/v1/identify.
func (h *IngestHandler) Identify(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	var req identifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	user, err := h.ingestor.Identify(r.Context(), tenant, req.Email, req.Event)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "userId": user.ExternalID})
}

type trackRequest struct {
	UserID string `json:"userId"`
	StepID string `json:"stepId"`
}

// Track handles POST /api/v1/track.
func (h *IngestHandler) Track(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	var req trackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.StepID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "userId and stepId are required"})
		return
	}

	if err := h.ingestor.Track(r.Context(), tenant, req.UserID, req.StepID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondJSON(w, http.StatusNotFound, errorResponse{Error: "unknown user, call identify first"})
			return
		}
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

type configRequest struct {
	ActivationStep string `json:"activationStep"`
}

// Config handles POST /api/v1/config.
func (h *IngestHandler) Config(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	var req configRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ActivationStep == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "activationStep is required"})
		return
	}

	if err := h.settings.SetActivationStep(r.Context(), tenant, req.ActivationStep); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
