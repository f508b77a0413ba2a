package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/alltechdigital/leads-api/internal/security"
)

type threatPattern struct {
	re       *regexp.Regexp
	category security.Category
}

// Injection probes scanned in the URL and every string of a JSON body.
var threatPatterns = []threatPattern{
	{regexp.MustCompile(`(?i)union\s+select`), security.CategorySQLInjection},
	{regexp.MustCompile(`(?i)drop\s+table`), security.CategorySQLInjection},
	{regexp.MustCompile(`(?i)insert\s+into`), security.CategorySQLInjection},
	{regexp.MustCompile(`(?i)delete\s+from`), security.CategorySQLInjection},
	{regexp.MustCompile(`(?i)<script`), security.CategoryXSSAttempt},
	{regexp.MustCompile(`(?i)javascript:`), security.CategoryXSSAttempt},
	{regexp.MustCompile(`(?i)vbscript:`), security.CategoryXSSAttempt},
	{regexp.MustCompile(`(?i)on\w+\s*=`), security.CategoryXSSAttempt},
	{regexp.MustCompile(`(?i)<iframe`), security.CategoryXSSAttempt},
	{regexp.MustCompile(`(?i)data:text/html`), security.CategoryXSSAttempt},
}

// ThreatScan blocks requests whose URL or JSON body carries injection
// payloads, before they reach any handler. Bodies larger than maxBytes are
// rejected outright. The body is restored for downstream handlers.
func ThreatScan(maxBytes int64, events *security.EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := r.URL.RequestURI()
			if q, err := url.QueryUnescape(r.URL.RawQuery); err == nil {
				target += " " + q
			}
			if category, ok := scanString(target); ok {
				block(w, r, events, category, "suspicious_url")
				return
			}

			if r.Body != nil && r.Method == http.MethodPost {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
				if err != nil {
					writeError(w, http.StatusBadRequest, "Não foi possível ler a requisição", "BODY_READ_FAILED")
					return
				}
				if int64(len(body)) > maxBytes {
					writeError(w, http.StatusBadRequest, "Payload muito grande", "PAYLOAD_TOO_LARGE")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				var payload any
				if json.Unmarshal(body, &payload) == nil {
					if category, ok := scanValue(payload); ok {
						block(w, r, events, category, "suspicious_payload")
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func block(w http.ResponseWriter, r *http.Request, events *security.EventLogger, category security.Category, name string) {
	if events != nil {
		events.Log(r, category, name, "padrão de ataque detectado na requisição", security.LevelCritical, nil)
	}
	writeError(w, http.StatusBadRequest, "Conteúdo bloqueado por segurança", "THREAT_DETECTED")
}

func scanString(s string) (security.Category, bool) {
	for _, p := range threatPatterns {
		if p.re.MatchString(s) {
			return p.category, true
		}
	}
	return "", false
}

// scanValue walks a decoded JSON document checking every string, objects and
// arrays included.
func scanValue(v any) (security.Category, bool) {
	switch val := v.(type) {
	case string:
		return scanString(val)
	case map[string]any:
		for _, nested := range val {
			if category, ok := scanValue(nested); ok {
				return category, true
			}
		}
	case []any:
		for _, nested := range val {
			if category, ok := scanValue(nested); ok {
				return category, true
			}
		}
	}
	return "", false
}
