package security

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// Level classifies the severity of a security event.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Category groups security events for triage and metrics.
type Category string

const (
	CategoryInputValidation    Category = "INPUT_VALIDATION"
	CategoryCSRFProtection     Category = "CSRF_PROTECTION"
	CategoryRateLimiting       Category = "RATE_LIMITING"
	CategoryCORSViolation      Category = "CORS_VIOLATION"
	CategorySQLInjection       Category = "SQL_INJECTION_ATTEMPT"
	CategoryXSSAttempt         Category = "XSS_ATTEMPT"
	CategorySuspiciousActivity Category = "SUSPICIOUS_ACTIVITY"
	CategorySystemError        Category = "SYSTEM_ERROR"
)

// Event is a structured security event. Request bodies are never attached;
// only redacted metadata reaches the log stream.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Category  Category       `json:"category"`
	Name      string         `json:"event"`
	Message   string         `json:"message"`
	ClientIP  string         `json:"client_ip"`
	UserAgent string         `json:"user_agent"`
	Origin    string         `json:"origin,omitempty"`
	Method    string         `json:"method"`
	Path      string         `json:"path"`
	Context   map[string]any `json:"context,omitempty"`
	RiskScore int            `json:"risk_score"`
}

// ActionRequired reports whether the event should page someone.
func (e Event) ActionRequired() bool {
	return e.RiskScore >= 7
}

// riskScore combines a per-category base with a level adjustment, clamped 1-10.
func riskScore(category Category, level Level) int {
	var base int
	switch category {
	case CategorySQLInjection, CategoryXSSAttempt:
		base = 9
	case CategoryCSRFProtection, CategoryCORSViolation:
		base = 6
	case CategoryRateLimiting:
		base = 4
	case CategoryInputValidation:
		base = 3
	default:
		base = 2
	}

	switch level {
	case LevelCritical:
		base += 3
	case LevelError:
		base++
	case LevelInfo:
		base--
	}

	if base > 10 {
		return 10
	}
	if base < 1 {
		return 1
	}
	return base
}

// ClientIP extracts the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
