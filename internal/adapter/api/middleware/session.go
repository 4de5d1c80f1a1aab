package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/pkg/token"
)

// Session is a middleware factory that authenticates founder requests by a
// Bearer JWT and places the tenant in the request context.
func Session(tenants domain.TenantRepository, jwtSecret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized: session token required", http.StatusUnauthorized)
				return
			}

			claims, err := token.Validate(raw, jwtSecret)
			if err != nil {
				logger.Warn("invalid session token", "remote_addr", r.RemoteAddr, "error", err)
				http.Error(w, "Unauthorized: invalid session", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetByEmail(r.Context(), claims.Email)
			if errors.Is(err, domain.ErrTenantNotFound) {
				http.Error(w, "Unauthorized: unknown account", http.StatusUnauthorized)
				return
			}
			if err != nil {
				logger.Error("failed to load session tenant", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", false
	}
	return raw, true
}
