package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// CronAuth is a middleware factory that guards scheduler endpoints with a
// shared bearer secret. An empty secret leaves the endpoints open, which is
// the local development mode.
func CronAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				raw, ok := bearerToken(r)
				if !ok || subtle.ConstantTimeCompare([]byte(raw), []byte(secret)) != 1 {
					logger.Warn("cron request rejected", "remote_addr", r.RemoteAddr)
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
