package core

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"skylog/internal/config"
	"skylog/internal/types"
)

// newTestServer builds a Server with a minimal config and a discard logger.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Environment: "local"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

// --- Recoverer Tests ---

func TestRecoverer_NoPanic(t *testing.T) {
	srv := newTestServer(t)

	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRecoverer_Panic_ReturnsJSON500(t *testing.T) {
	srv := newTestServer(t)

	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req-panic-1"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body struct {
		Success   bool   `json:"success"`
		Error     string `json:"error"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("panic response is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("unexpected code: %q", body.Code)
	}
	if body.RequestID != "req-panic-1" {
		t.Errorf("expected request ID in panic envelope, got %q", body.RequestID)
	}
}

// --- ContextTimeout Tests ---

func TestContextTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadlineSet bool
	handler := ContextTimeoutMiddleware(5 * time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadlineSet = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !deadlineSet {
		t.Error("expected a deadline on the request context")
	}
}

// --- RequestID Tests ---

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestRequestIDMiddleware_GeneratesUUID(t *testing.T) {
	var ctxID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !uuidPattern.MatchString(ctxID) {
		t.Errorf("expected a generated UUID, got %q", ctxID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Errorf("expected response header to match context ID, got %q", got)
	}
}

func TestRequestIDMiddleware_PropagatesIncomingID(t *testing.T) {
	var ctxID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID != "client-supplied-id" {
		t.Errorf("expected incoming ID to be reused, got %q", ctxID)
	}
}

// --- RequestLogger Tests ---

func TestRequestLogger_LogsAndRedacts(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger, []string{"Authorization"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/weather/queries", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Accept", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, `"path":"/api/weather/queries"`) {
		t.Errorf("expected path in log output: %s", out)
	}
	if !strings.Contains(out, `"status":200`) {
		t.Errorf("expected status in log output: %s", out)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("authorization value leaked into logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker in logs: %s", out)
	}
}

func TestRequestLogger_ErrorLevelFor5xx(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("expected ERROR level for 5xx: %s", buf.String())
	}
}

// --- SecurityHeaders Tests ---

func TestSecurityHeadersMiddleware(t *testing.T) {
	srv := newTestServer(t)

	handler := srv.SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
	}
	for name, want := range expected {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("expected %s=%q, got %q", name, want, got)
		}
	}
}

// --- CORS Tests ---

func TestCORS_WildcardAllowsAll(t *testing.T) {
	handler := NewCORSMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	// Download endpoints need the attachment filename visible to browsers.
	if !strings.Contains(rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Error("expected Content-Disposition in exposed headers")
	}
}

func TestCORS_Preflight204(t *testing.T) {
	var reached bool
	handler := NewCORSMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/weather/search", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", rec.Code)
	}
	if reached {
		t.Error("preflight must not reach downstream handlers")
	}
}

func TestCORS_DisallowedOriginGetsNoHeaders(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for disallowed origin, got %q", got)
	}
}

func TestCORS_AllowedOriginEchoedWithVary(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("expected origin echo, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("expected Vary: Origin, got %q", got)
	}
}

// --- responseCapture Tests ---

func TestResponseCapture_DefaultsTo200OnWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	rc := &responseCapture{ResponseWriter: rec}

	_, _ = rc.Write([]byte("hello"))

	if rc.statusCode != http.StatusOK {
		t.Errorf("expected captured status 200, got %d", rc.statusCode)
	}
}

func TestResponseCapture_CapturesFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rc := &responseCapture{ResponseWriter: rec}

	rc.WriteHeader(http.StatusCreated)
	rc.WriteHeader(http.StatusInternalServerError)

	if rc.statusCode != http.StatusCreated {
		t.Errorf("expected first status to win, got %d", rc.statusCode)
	}
}
