package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestAdminAuth(t *testing.T) {
	verifier := testutil.NewMockVerifier()
	verifier.Tokens["good"] = &auth.Principal{ID: "admin-1", Email: "ops@example.com", UserType: auth.UserTypeAdmin}

	var seen *auth.Principal
	var seenToken string
	handler := AdminAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetAdmin(r)
		seenToken = GetToken(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Access token is required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Access token is required"},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"valid token", "Bearer good", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusNoContent {
				if seen == nil || seen.ID != "admin-1" || seenToken != "good" {
					t.Errorf("admin = %+v token = %q", seen, seenToken)
				}
			} else if seen != nil {
				t.Error("handler should not run")
			}
		})
	}
}

func TestAdminAuthServiceDown(t *testing.T) {
	verifier := testutil.NewMockVerifier()
	verifier.Err = errors.ServiceUnavailable("Authentication service unavailable", nil)

	handler := AdminAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own budget")
	}

	now = now.Add(20 * time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("one request should refill after window/max")
	}

	now = now.Add(5 * time.Minute)
	rl.Allow("10.0.0.3")
	if rl.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", rl.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	handler := RateLimit(rl, "Too many requests", quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/admin/jobs", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes[i] = rec.Code

		if i == 2 {
			if rec.Header().Get("Retry-After") == "" {
				t.Error("Retry-After header missing")
			}
			if !strings.Contains(rec.Body.String(), "RATE_LIMITED") || !strings.Contains(rec.Body.String(), "Too many requests") {
				t.Errorf("body = %s", rec.Body.String())
			}
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var got string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r)
	}))

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"request id reused", map[string]string{"X-Request-ID": "abc-123"}, "abc-123"},
		{"correlation id reused", map[string]string{"X-Correlation-ID": "gw.42_a"}, "gw.42_a"},
		{"request id wins", map[string]string{"X-Request-ID": "req-1", "X-Correlation-ID": "corr-1"}, "req-1"},
		{"bad request id falls back", map[string]string{"X-Request-ID": "bad id", "X-Correlation-ID": "corr-2"}, "corr-2"},
		{"log injection replaced", map[string]string{"X-Request-ID": "x\nlevel=error"}, ""},
		{"too long replaced", map[string]string{"X-Request-ID": strings.Repeat("a", 65)}, ""},
		{"missing generated", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Header().Get(RequestIDHeader) != got {
				t.Errorf("header = %q, context = %q", rec.Header().Get(RequestIDHeader), got)
			}
			if tt.want != "" {
				if got != tt.want {
					t.Errorf("request id = %q, want %q", got, tt.want)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("generated request id = %q, want a UUID", got)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	for _, production := range []bool{false, true} {
		handler := SecurityHeaders(production)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("X-Content-Type-Options missing")
		}
		if hsts := rec.Header().Get("Strict-Transport-Security"); (hsts != "") != production {
			t.Errorf("production=%v HSTS = %q", production, hsts)
		}
	}
}
