package security

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

func newTestRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Origin", "http://localhost:3000")
	req.RemoteAddr = "203.0.113.7:51234"
	return req
}

func TestRiskScore(t *testing.T) {
	tests := []struct {
		category Category
		level    Level
		want     int
	}{
		{CategoryXSSAttempt, LevelCritical, 10},
		{CategorySQLInjection, LevelError, 10},
		{CategoryCSRFProtection, LevelWarning, 6},
		{CategoryRateLimiting, LevelWarning, 4},
		{CategoryInputValidation, LevelInfo, 2},
		{CategoryCORSViolation, LevelCritical, 9},
	}
	for _, tt := range tests {
		got := riskScore(tt.category, tt.level)
		assert.Equal(t, tt.want, got, "category %s level %s", tt.category, tt.level)
	}
}

func TestActionRequired(t *testing.T) {
	high := Event{RiskScore: 7}
	low := Event{RiskScore: 6}
	assert.True(t, high.ActionRequired())
	assert.False(t, low.ActionRequired())
}

func TestClientIP(t *testing.T) {
	req := newTestRequest()
	assert.Equal(t, "203.0.113.7", ClientIP(req))

	req.Header.Set("X-Real-Ip", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "192.0.2.1, 198.51.100.4")
	assert.Equal(t, "192.0.2.1", ClientIP(req))
}

func TestLogEmitsStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewEventLogger(logging.NewWithWriter(&buf, "info"), "")

	evt := l.Log(newTestRequest(), CategoryXSSAttempt, "xss_detected", "script tag in payload", LevelCritical, map[string]any{"field": "message"})

	require.NotEmpty(t, evt.ID)
	assert.Equal(t, 10, evt.RiskScore)
	assert.Equal(t, "203.0.113.7", evt.ClientIP)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "XSS_ATTEMPT", entry["category"])
	assert.Equal(t, "xss_detected", entry["event"])
	assert.Equal(t, float64(10), entry["risk_score"])
}

func TestLogRateLimitsRepeatedEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewEventLogger(logging.NewWithWriter(&buf, "info"), "")
	req := newTestRequest()

	for i := 0; i < maxLogsPerKey+20; i++ {
		l.Log(req, CategoryRateLimiting, "rate_limit_exceeded", "too many requests", LevelWarning, nil)
	}

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, maxLogsPerKey, lines)
}

func TestLogRateLimitResetsAfterWindow(t *testing.T) {
	l := NewEventLogger(logging.NewWithWriter(&bytes.Buffer{}, "info"), "")

	key := "ip|cat|name"
	for i := 0; i < maxLogsPerKey; i++ {
		require.True(t, l.shouldLog(key))
	}
	require.False(t, l.shouldLog(key))

	l.mu.Lock()
	l.counts[key].resetAt = time.Now().Add(-time.Second)
	l.mu.Unlock()

	assert.True(t, l.shouldLog(key))
}

func TestHighRiskEventTriggersWebhookAlert(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := NewEventLogger(logging.NewWithWriter(&bytes.Buffer{}, "info"), srv.URL)
	l.Log(newTestRequest(), CategorySQLInjection, "sql_injection_detected", "union select in payload", LevelCritical, nil)

	select {
	case payload := <-received:
		assert.Equal(t, "security_incident", payload["alert_type"])
		assert.Equal(t, "sql_injection_detected", payload["event"])
	case <-time.After(2 * time.Second):
		t.Fatal("expected webhook alert")
	}
}

func TestLowRiskEventSkipsWebhook(t *testing.T) {
	called := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer srv.Close()

	l := NewEventLogger(logging.NewWithWriter(&bytes.Buffer{}, "info"), srv.URL)
	l.Log(newTestRequest(), CategoryInputValidation, "validation_failed", "invalid email", LevelInfo, nil)

	select {
	case <-called:
		t.Fatal("webhook should not fire for low risk events")
	case <-time.After(200 * time.Millisecond):
	}
}
