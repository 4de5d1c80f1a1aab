package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/onboardflow/internal/usecase"
)

// Sweeper runs one sweep over every automation-enabled tenant.
type Sweeper interface {
	Run(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error)
}

// CronHandler serves the scheduler endpoints. Both routes share one sweep
// engine; process-stalls narrows it to the step-1 rule over users who have
// never been emailed.
type CronHandler struct {
	sweeper        Sweeper
	logger         *slog.Logger
	sweepOpts      usecase.SweepOptions
	stallThreshold time.Duration
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(sweeper Sweeper, logger *slog.Logger, sweepOpts usecase.SweepOptions, stallThreshold time.Duration) *CronHandler {
	return &CronHandler{
		sweeper:        sweeper,
		logger:         logger,
		sweepOpts:      sweepOpts,
		stallThreshold: stallThreshold,
	}
}

// Sweep handles GET /api/cron/sweep.
func (h *CronHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Run(r.Context(), h.sweepOpts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"emailsSent":      res.EmailsSent,
		"candidatesFound": res.CandidatesFound,
	})
}

// ProcessStalls handles GET /api/cron/process-stalls.
func (h *CronHandler) ProcessStalls(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Run(r.Context(), usecase.StallOnlySweepOptions(h.stallThreshold))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   res.EmailsSent,
	})
}
