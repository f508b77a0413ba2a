package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alltechdigital/leads-api/internal/csrf"
	"github.com/alltechdigital/leads-api/internal/ratelimit"
	"github.com/alltechdigital/leads-api/internal/security"
	"github.com/alltechdigital/leads-api/pkg/logging"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func testEvents() *security.EventLogger {
	return security.NewEventLogger(logging.NewWithWriter(io.Discard, "error"), "")
}

func browserRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"http://localhost:3000"}, testEvents())
	req := browserRequest(http.MethodGet, "/api/csrf", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"http://localhost:3000"}, testEvents())
	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader("{}"))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if called {
		t.Fatalf("handler must not run for rejected origin")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Origem não autorizada") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCORSAnswersPreflight(t *testing.T) {
	called := false
	mw := CORS([]string{"http://localhost:3000"}, testEvents())
	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if called {
		t.Fatalf("preflight must not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestCORSRequestWithoutOriginPasses(t *testing.T) {
	called := false
	mw := CORS([]string{"http://localhost:3000"}, testEvents())
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, browserRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Fatalf("origin-less request must pass")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler(nil)).ServeHTTP(rec, browserRequest(http.MethodGet, "/health", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("header %s: expected %q, got %q", header, want, got)
		}
	}
}

func TestValidateClientRejectsWrongContentType(t *testing.T) {
	mw := ValidateClient(testEvents())
	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidateClientRejectsScrapers(t *testing.T) {
	mw := ValidateClient(testEvents())

	for _, ua := range []string{"", "curl/8.0", "my-scraper-bot/1.0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf", nil)
		req.Header.Set("User-Agent", ua)
		rec := httptest.NewRecorder()

		mw(okHandler(nil)).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("user agent %q: expected 400, got %d", ua, rec.Code)
		}
	}
}

func TestValidateClientAllowsLegitimateBots(t *testing.T) {
	called := false
	mw := ValidateClient(testEvents())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1)")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("googlebot must pass the bot filter")
	}
}

func TestRateLimitHeadersAndRejection(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), time.Minute, 2, logging.Default())
	mw := RateLimit(limiter, testEvents())
	handler := mw(okHandler(nil))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		req := browserRequest(http.MethodGet, "/api/csrf", nil)
		req.RemoteAddr = "203.0.113.9:1000"
		handler.ServeHTTP(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected zero remaining, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Fatalf("Retry-After must be within the window, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), time.Minute, 1, logging.Default())
	handler := RateLimit(limiter, testEvents())(okHandler(nil))

	first := browserRequest(http.MethodGet, "/api/csrf", nil)
	first.RemoteAddr = "203.0.113.1:1000"
	second := browserRequest(http.MethodGet, "/api/csrf", nil)
	second.RemoteAddr = "203.0.113.2:1000"

	recA := httptest.NewRecorder()
	handler.ServeHTTP(recA, first)
	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, second)

	if recA.Code != http.StatusOK || recB.Code != http.StatusOK {
		t.Fatalf("separate IPs must not share a window: %d, %d", recA.Code, recB.Code)
	}
}

func TestThreatScanBlocksSQLInjectionBody(t *testing.T) {
	mw := ThreatScan(10*1024, testEvents())
	body := `{"message": "1 UNION SELECT password FROM users"}`
	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "UNION") {
		t.Fatalf("response must not echo the payload")
	}
}

func TestThreatScanBlocksScriptInNestedPayload(t *testing.T) {
	mw := ThreatScan(10*1024, testEvents())
	body := `{"data": {"items": ["ok", "<script>alert(1)</script>"]}}`
	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestThreatScanBlocksSuspiciousURL(t *testing.T) {
	mw := ThreatScan(10*1024, testEvents())
	req := browserRequest(http.MethodGet, "/api/csrf?q=union+select+1", nil)
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestThreatScanRejectsOversizedPayload(t *testing.T) {
	mw := ThreatScan(64, testEvents())
	big := `{"message": "` + strings.Repeat("a", 200) + `"}`
	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader(big))
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Fatalf("expected oversize code, got %s", rec.Body.String())
	}
}

func TestThreatScanRestoresCleanBody(t *testing.T) {
	mw := ThreatScan(10*1024, testEvents())
	payload := map[string]string{"message": "gostaria de um orçamento"}
	raw, _ := json.Marshal(payload)

	var seen map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.WriteHeader(http.StatusOK)
	})

	req := browserRequest(http.MethodPost, "/api/contact", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)

	if seen["message"] != payload["message"] {
		t.Fatalf("downstream handler must see the original body, got %v", seen)
	}
}

func TestCSRFMiddleware(t *testing.T) {
	svc := csrf.NewService("test-secret", time.Hour)
	handler := csrf.NewHandler(svc, logging.Default(), false)
	mw := CSRF(handler, testEvents())

	// GET passes without a token.
	rec := httptest.NewRecorder()
	called := false
	mw(okHandler(&called)).ServeHTTP(rec, browserRequest(http.MethodGet, "/api/contact", nil))
	if !called {
		t.Fatalf("GET must bypass CSRF validation")
	}

	// POST without token fails with the validation code.
	rec = httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, browserRequest(http.MethodPost, "/api/contact", strings.NewReader("{}")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CSRF_VALIDATION_FAILED") {
		t.Fatalf("expected validation failure code, got %s", rec.Body.String())
	}

	// POST with a freshly issued token passes.
	issueRec := httptest.NewRecorder()
	handler.Issue(issueRec, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	var issued struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(issueRec.Body.Bytes(), &issued); err != nil {
		t.Fatalf("decode issue response: %v", err)
	}

	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader("{}"))
	req.Header.Set(csrf.HeaderToken, issued.CSRFToken)
	for _, c := range issueRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	called = false
	mw(okHandler(&called)).ServeHTTP(rec, req)
	if !called {
		t.Fatalf("valid token must pass, got status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestCSRFMiddlewareExpiredToken(t *testing.T) {
	svc := csrf.NewService("test-secret", time.Hour)
	handler := csrf.NewHandler(svc, logging.Default(), false)
	mw := CSRF(handler, testEvents())

	req := browserRequest(http.MethodPost, "/api/contact", strings.NewReader("{}"))
	req.Header.Set(csrf.HeaderToken, "deadbeef")
	req.AddCookie(&http.Cookie{Name: csrf.CookieHash, Value: "deadbeef"})
	req.AddCookie(&http.Cookie{Name: csrf.CookieExpires, Value: strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10)})

	rec := httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CSRF_TOKEN_EXPIRED") {
		t.Fatalf("expected expired code, got %s", rec.Body.String())
	}
}
