package middleware

import (
	"net/http"
	"strings"

	"github.com/alltechdigital/leads-api/internal/security"
)

// CORS provides an allowlist-based CORS middleware. Requests carrying an
// Origin outside the allowlist are rejected and reported as a security event.
// If allowedOrigins contains "*", any Origin is echoed back.
func CORS(allowedOrigins []string, events *security.EventLogger) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAny = true
			continue
		}
		allow[origin] = struct{}{}
	}

	allowedHeaders := "Content-Type, X-Csrf-Token"
	allowedMethods := "GET, POST, OPTIONS"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" {
				if _, ok := allow[origin]; !ok && !allowAny {
					if events != nil {
						events.Log(r, security.CategoryCORSViolation, "cors_origin_rejected",
							"requisição de origem não autorizada", security.LevelWarning,
							map[string]any{"origin": origin})
					}
					writeError(w, http.StatusForbidden, "Origem não autorizada", "CORS_ORIGIN_REJECTED")
					return
				}

				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
