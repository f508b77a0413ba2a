package middleware

import (
	"net/http"
	"strconv"

	"github.com/alltechdigital/leads-api/internal/ratelimit"
	"github.com/alltechdigital/leads-api/internal/security"
)

// RateLimit enforces the per-IP request ceiling. Every response carries the
// X-RateLimit-* headers; rejections add Retry-After.
func RateLimit(limiter *ratelimit.Limiter, events *security.EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := security.ClientIP(r)
			result := limiter.Allow(r.Context(), ip)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				if events != nil {
					events.Log(r, security.CategoryRateLimiting, "rate_limit_exceeded",
						"limite de requisições excedido", security.LevelWarning,
						map[string]any{"limit": result.Limit})
				}
				h.Set("Retry-After", strconv.Itoa(result.RetryAfter()))
				writeError(w, http.StatusTooManyRequests, "Muitas requisições. Tente novamente em alguns momentos.", "RATE_LIMIT_EXCEEDED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
