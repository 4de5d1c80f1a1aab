package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
)

const APIKeyHeader = "X-API-Key"

type contextKey string

const tenantContextKey contextKey = "tenant"

// TenantFrom extracts the authenticated tenant placed in the request context
// by the Auth or Session middleware.
func TenantFrom(ctx context.Context) (*domain.Tenant, bool) {
	t, ok := ctx.Value(tenantContextKey).(*domain.Tenant)
	return t, ok
}

// WithTenant returns a context carrying the tenant. Handler tests use it to
// simulate an authenticated request.
func WithTenant(ctx context.Context, t *domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, t)
}

// Auth is a middleware factory that authenticates requests by the X-API-Key
// header and places the owning tenant in the request context.
func Auth(tenants domain.TenantRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				logger.Warn("API key missing from request", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: API key required", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetByAPIKey(r.Context(), apiKey)
			if errors.Is(err, domain.ErrTenantNotFound) {
				logger.Warn("invalid API key provided", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
				return
			}
			if err != nil {
				logger.Error("failed to validate API key", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}
