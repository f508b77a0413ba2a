package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/alltechdigital/leads-api/internal/security"
)

// SecurityHeaders stamps the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

var (
	botRe        = regexp.MustCompile(`(?i)bot|crawler|spider|scraper`)
	legitBotRe   = regexp.MustCompile(`(?i)googlebot|bingbot|slackbot|facebookexternalhit`)
	minUserAgent = 10
)

// ValidateClient rejects form submissions that do not look like they came
// from a browser: wrong content type, missing or tiny User-Agent, or a
// scraping bot that is not one of the allowed crawlers.
func ValidateClient(events *security.EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				contentType := r.Header.Get("Content-Type")
				if !strings.Contains(contentType, "application/json") {
					writeError(w, http.StatusBadRequest, "Requisição inválida", "INVALID_HEADERS")
					return
				}
			}

			ua := r.UserAgent()
			if len(ua) < minUserAgent {
				if events != nil {
					events.Log(r, security.CategorySuspiciousActivity, "missing_user_agent",
						"User-Agent suspeito ou ausente", security.LevelWarning, nil)
				}
				writeError(w, http.StatusBadRequest, "Requisição inválida", "INVALID_HEADERS")
				return
			}
			if botRe.MatchString(ua) && !legitBotRe.MatchString(ua) {
				if events != nil {
					events.Log(r, security.CategorySuspiciousActivity, "suspicious_bot",
						"Bot suspeito detectado", security.LevelWarning,
						map[string]any{"user_agent": ua})
				}
				writeError(w, http.StatusBadRequest, "Requisição inválida", "INVALID_HEADERS")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
