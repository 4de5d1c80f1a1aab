package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/usecase"
)

// AnalyticsBuilder computes the dashboard payload for one tenant.
type AnalyticsBuilder interface {
	Build(ctx context.Context, tenant *domain.Tenant) (*usecase.Analytics, error)
}

// AnalyticsHandler serves the founder dashboard data.
type AnalyticsHandler struct {
	builder AnalyticsBuilder
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(builder AnalyticsBuilder, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{builder: builder, logger: logger}
}

// Get handles GET /api/v1/analytics.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	analytics, err := h.builder.Build(r.Context(), tenant)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}
