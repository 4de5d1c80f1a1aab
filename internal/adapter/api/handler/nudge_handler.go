package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
)

// NudgeRunner runs a manual nudge batch for one tenant and target step.
type NudgeRunner interface {
	Run(ctx context.Context, tenant *domain.Tenant, targetStep string) (int, error)
}

// NudgeHandler serves the founder-triggered nudge endpoint.
type NudgeHandler struct {
	runner NudgeRunner
	logger *slog.Logger
}

// NewNudgeHandler creates a new NudgeHandler.
func NewNudgeHandler(runner NudgeRunner, logger *slog.Logger) *NudgeHandler {
	return &NudgeHandler{runner: runner, logger: logger}
}

type nudgeRequest struct {
	TargetStep string `json:"targetStep"`
}

// Nudge handles POST /api/v1/nudge.
func (h *NudgeHandler) Nudge(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOr401(w, r)
	if !ok {
		return
	}

	var req nudgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := h.runner.Run(r.Context(), tenant, req.TargetStep)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}
