package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

func verifyServer(t *testing.T, calls *atomic.Int32, handler func(token string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-Internal-Service") != "true" || r.Header.Get("X-Service-Key") != "secret" {
			t.Errorf("missing internal service headers: %v", r.Header)
		}
		var body struct {
			Token string `json:"token"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		status, payload := handler(body.Token)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string, ttl time.Duration) *Client {
	return NewClient(Config{
		BaseURL:          url,
		ServiceKey:       "secret",
		VerifyTimeout:    time.Second,
		CacheTTL:         ttl,
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	}, logger.Nop())
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		payload  string
		token    string
		wantCode string
		wantID   string
	}{
		{
			name:    "admin",
			status:  http.StatusOK,
			payload: `{"success":true,"data":{"valid":true,"user":{"id":"u-1","email":"a@x.io","user_type":"admin"}}}`,
			token:   "tok",
			wantID:  "u-1",
		},
		{
			name:    "superadmin",
			status:  http.StatusOK,
			payload: `{"success":true,"data":{"valid":true,"user":{"id":"u-2","email":"s@x.io","user_type":"superadmin"}}}`,
			token:   "tok",
			wantID:  "u-2",
		},
		{
			name:     "student is forbidden",
			status:   http.StatusOK,
			payload:  `{"success":true,"data":{"valid":true,"user":{"id":"u-3","email":"s@x.io","user_type":"student"}}}`,
			token:    "tok",
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "invalid token",
			status:   http.StatusOK,
			payload:  `{"success":true,"data":{"valid":false}}`,
			token:    "tok",
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "auth service rejects",
			status:   http.StatusUnauthorized,
			payload:  `{"success":false,"error":{"message":"expired"}}`,
			token:    "tok",
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "missing token",
			token:    "",
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "auth service failure fails closed",
			status:   http.StatusInternalServerError,
			payload:  `{}`,
			token:    "tok",
			wantCode: errors.ErrCodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := verifyServer(t, &calls, func(string) (int, string) { return tt.status, tt.payload })
			c := newTestClient(srv.URL, 0)

			p, err := c.Verify(context.Background(), tt.token)
			if tt.wantCode != "" {
				if got := errors.CodeOf(err); got != tt.wantCode {
					t.Fatalf("expected code %s, got %s (%v)", tt.wantCode, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ID != tt.wantID {
				t.Errorf("expected id %s, got %s", tt.wantID, p.ID)
			}
		})
	}
}

func TestVerifyUnreachableServiceFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(url, 0)
	_, err := c.Verify(context.Background(), "tok")
	if !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}

func TestVerifyBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, &calls, func(string) (int, string) { return http.StatusBadGateway, `{}` })
	c := newTestClient(srv.URL, 0)

	for i := 0; i < 4; i++ {
		_, err := c.Verify(context.Background(), "tok")
		if !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
			t.Fatalf("attempt %d: expected SERVICE_UNAVAILABLE, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d calls", got)
	}
	if c.BreakerState() != "open" {
		t.Errorf("expected open breaker, got %s", c.BreakerState())
	}
}

func TestVerifyCachesUntilTokenExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, &calls, func(string) (int, string) {
		return http.StatusOK, `{"success":true,"data":{"valid":true,"user":{"id":"u-1","email":"a@x.io","user_type":"admin"}}}`
	})
	c := newTestClient(srv.URL, time.Minute)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("unknown-to-us"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Verify(context.Background(), token); err != nil {
			t.Fatalf("verify: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call with caching, got %d", got)
	}

	c.Forget(token)
	if _, err := c.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected a fresh call after Forget, got %d", got)
	}
}

func TestVerifyDoesNotCacheExpiredToken(t *testing.T) {
	var calls atomic.Int32
	srv := verifyServer(t, &calls, func(string) (int, string) {
		return http.StatusOK, `{"success":true,"data":{"valid":true,"user":{"id":"u-1","email":"a@x.io","user_type":"admin"}}}`
	})
	c := newTestClient(srv.URL, time.Minute)

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("k"))

	for i := 0; i < 2; i++ {
		if _, err := c.Verify(context.Background(), token); err != nil {
			t.Fatalf("verify: %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected every call to reach the auth service, got %d", got)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		payload  string
		wantCode string
	}{
		{
			name:    "admin login",
			status:  http.StatusOK,
			payload: `{"success":true,"data":{"token":"jwt","user":{"id":"u-1","email":"a@x.io","username":"ann","user_type":"admin","is_active":true}}}`,
		},
		{
			name:     "non admin",
			status:   http.StatusOK,
			payload:  `{"success":true,"data":{"token":"jwt","user":{"id":"u-2","user_type":"teacher"}}}`,
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "bad credentials",
			status:   http.StatusUnauthorized,
			payload:  `{"success":false,"error":{"code":"UNAUTHORIZED","message":"Invalid email or password"}}`,
			wantCode: errors.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/login" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			res, err := newTestClient(srv.URL, 0).Login(context.Background(), "a@x.io", "pw")
			if tt.wantCode != "" {
				if got := errors.CodeOf(err); got != tt.wantCode {
					t.Fatalf("expected %s, got %s", tt.wantCode, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Token != "jwt" || res.User.Username != "ann" {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def")
	if got := BearerToken(r); got != "abc.def" {
		t.Errorf("expected abc.def, got %q", got)
	}
	r.Header.Set("Authorization", "Basic xyz")
	if got := BearerToken(r); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}
