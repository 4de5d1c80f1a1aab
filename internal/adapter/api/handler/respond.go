package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/adapter/api/middleware"
	"github.com/user/onboardflow/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain sentinel errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log only.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrStepNotConfigured):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, domain.ErrTenantNotFound), errors.Is(err, domain.ErrUserNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateUser):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// tenantOr401 pulls the authenticated tenant out of the context. Reaching a
// handler without one means the route was wired without its middleware.
func tenantOr401(w http.ResponseWriter, r *http.Request) (*domain.Tenant, bool) {
	t, ok := middleware.TenantFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return nil, false
	}
	return t, true
}
