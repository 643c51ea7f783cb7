package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/visitlog/visitlog/internal/auth"
	"github.com/visitlog/visitlog/internal/config"
	"github.com/visitlog/visitlog/internal/directory"
	"github.com/visitlog/visitlog/internal/identity"
	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/track"
)

// newTestHandler builds a Handler with nil store clients. Only routes
// that reject the request before touching the store are exercised here;
// the full paths are covered by the integration tests.
func newTestHandler(t *testing.T, cfg *config.Config) *Handler {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{AppEnv: "development"}
	}
	schema := keys.NewSchema("analytics")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := track.NewTracker(nil, schema, directory.New(nil, schema), identity.NewService(nil, schema, nil), nil, logger, nil)

	return New(cfg, tracker, identity.NewService(nil, schema, nil), nil, nil, logger)
}

func TestTrack_InvalidBody(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader("{not json"))
	h.Track(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTrack_MissingPath(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"visitorId":"abc"}`))
	h.Track(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTrack_AdminPathIgnored(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"path":"/admin/dashboard","visitorId":"abc","ip":"93.184.216.34"}`))
	h.Track(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ignored":true`) {
		t.Errorf("body = %s, want ignored flag", rec.Body.String())
	}
}

func TestIdentify_MissingLabel(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/identify", strings.NewReader(`{}`))
	h.Identify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalytics_BadParams(t *testing.T) {
	h := newTestHandler(t, nil)

	for _, target := range []string{
		"/api/analytics?from=junk",
		"/api/analytics?to=2025-13-99",
		"/api/analytics?timeZone=Not/AZone",
		"/api/analytics?visitorPage=0",
		"/api/analytics?visitorLimit=-3",
	} {
		rec := httptest.NewRecorder()
		h.Analytics(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("the real password")
	if err != nil {
		t.Fatal(err)
	}
	h := newTestHandler(t, &config.Config{AppEnv: "development", AdminPasswordHash: hash})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"password":"guess"}`))
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogin_MissingPassword(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{}`))
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogout_WithoutCookie(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodDelete, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

type failingChecker struct{}

func (failingChecker) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestReadyz_Degraded(t *testing.T) {
	h := NewHealthHandler(failingChecker{})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Errorf("body = %s, want degraded status", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(nil)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote, forwarded, want string
	}{
		{"93.184.216.34:4431", "", "93.184.216.34"},
		{"[2001:db8::1]:4431", "", "2001:db8::1"},
		{"10.0.0.1:1234", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := clientIP(req); got != tc.want {
			t.Errorf("clientIP(remote=%q, xff=%q) = %q, want %q", tc.remote, tc.forwarded, got, tc.want)
		}
	}
}
