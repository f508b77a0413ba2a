package security

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

const (
	logWindow       = time.Minute
	maxLogsPerKey   = 100
	alertTimeout    = 5 * time.Second
	alertContentTyp = "application/json"
)

// EventLogger records security events as structured logs and raises webhook
// alerts for high-risk ones. Per (ip, category, name) keys are rate limited so
// a probing client cannot flood the log stream.
type EventLogger struct {
	logger     *logging.Logger
	webhookURL string
	httpClient *http.Client

	mu     sync.Mutex
	counts map[string]*logCount
}

type logCount struct {
	count   int
	resetAt time.Time
}

// NewEventLogger creates a security event logger. webhookURL may be empty, in
// which case no alerts are sent.
func NewEventLogger(logger *logging.Logger, webhookURL string) *EventLogger {
	if logger == nil {
		logger = logging.Default()
	}
	return &EventLogger{
		logger:     logger,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: alertTimeout},
		counts:     make(map[string]*logCount),
	}
}

// Log records a security event derived from the request. Context values must
// already be redacted; request bodies are never attached.
func (l *EventLogger) Log(r *http.Request, category Category, name, message string, level Level, context map[string]any) Event {
	evt := Event{
		ID:        "sec_" + uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Category:  category,
		Name:      name,
		Message:   message,
		ClientIP:  ClientIP(r),
		UserAgent: r.UserAgent(),
		Origin:    r.Header.Get("Origin"),
		Method:    r.Method,
		Path:      r.URL.Path,
		Context:   context,
		RiskScore: riskScore(category, level),
	}

	if !l.shouldLog(evt.ClientIP + "|" + string(category) + "|" + name) {
		return evt
	}

	args := []any{
		"event_id", evt.ID,
		"category", evt.Category,
		"event", evt.Name,
		"client_ip", evt.ClientIP,
		"method", evt.Method,
		"path", evt.Path,
		"risk_score", evt.RiskScore,
	}
	if len(context) > 0 {
		args = append(args, "context", context)
	}

	switch level {
	case LevelCritical, LevelError:
		l.logger.Error(message, args...)
	case LevelWarning:
		l.logger.Warn(message, args...)
	default:
		l.logger.Info(message, args...)
	}

	if evt.ActionRequired() {
		go l.alert(evt)
	}
	return evt
}

func (l *EventLogger) shouldLog(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.counts[key]
	if !ok || now.After(entry.resetAt) {
		l.counts[key] = &logCount{count: 1, resetAt: now.Add(logWindow)}
		l.sweepLocked(now)
		return true
	}
	if entry.count >= maxLogsPerKey {
		return false
	}
	entry.count++
	return true
}

// sweepLocked drops stale counters; called with the mutex held.
func (l *EventLogger) sweepLocked(now time.Time) {
	for key, entry := range l.counts {
		if now.After(entry.resetAt) {
			delete(l.counts, key)
		}
	}
}

// alert posts the event to the monitoring webhook, best effort.
func (l *EventLogger) alert(evt Event) {
	if l.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"alert_type": "security_incident",
		"severity":   evt.Level,
		"risk_score": evt.RiskScore,
		"event":      evt.Name,
		"message":    evt.Message,
		"client_ip":  evt.ClientIP,
		"timestamp":  evt.Timestamp,
	})
	if err != nil {
		l.logger.Error("security alert marshal failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.webhookURL, bytes.NewReader(payload))
	if err != nil {
		l.logger.Error("security alert request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", alertContentTyp)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.logger.Error("security alert delivery failed", "error", err, "event_id", evt.ID)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		l.logger.Error("security alert rejected", "status", resp.StatusCode, "event_id", evt.ID)
	}
}
