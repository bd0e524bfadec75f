// Package auth delegates admin authentication to the platform auth service.
package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
)

// Admin user types accepted by the admin API
const (
	UserTypeAdmin      = "admin"
	UserTypeSuperadmin = "superadmin"
)

const maxResponseBytes = 1 << 20

// Principal is the authenticated admin attached to a request.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// LoginUser is the account returned by a successful login.
type LoginUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	UserType string `json:"user_type"`
	IsActive bool   `json:"is_active"`
}

// LoginResult is the token and account returned by Login.
type LoginResult struct {
	User  LoginUser `json:"user"`
	Token string    `json:"token"`
}

// Verifier checks bearer tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Config configures the auth service client.
type Config struct {
	BaseURL          string
	ServiceName      string
	ServiceKey       string
	VerifyTimeout    time.Duration
	LoginTimeout     time.Duration
	CacheTTL         time.Duration
	CacheSize        int
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

func (c *Config) withDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "admin-service"
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = 5 * time.Second
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 10 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 1024
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
}

// Client talks to the auth service. Transport failures and 5xx answers
// trip a circuit breaker; while it is open every call fails closed with
// SERVICE_UNAVAILABLE.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*reply]
	cache   *cache.TTL[*Principal]
	logger  *logger.Logger
}

type reply struct {
	status int
	body   []byte
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type verifyData struct {
	Valid bool       `json:"valid"`
	User  *Principal `json:"user"`
}

// NewClient creates a client for cfg.BaseURL. A zero CacheTTL disables
// verification caching.
func NewClient(cfg Config, log *logger.Logger) *Client {
	cfg.withDefaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: log.Component("auth-client"),
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New[*Principal]("auth_verify", cfg.CacheSize, cfg.CacheTTL)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
		Name:        "auth-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Auth service circuit breaker state changed")
		},
	})
	return c
}

// Verify validates token with the auth service and requires an admin
// or superadmin account.
func (c *Client) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		metrics.RecordAuthVerification("missing")
		return nil, errors.Unauthorized("Access token is required")
	}

	key := cacheKey(token)
	if c.cache != nil {
		if p, ok := c.cache.Get(key); ok {
			metrics.RecordAuthVerification("cached")
			return p, nil
		}
	}

	rep, err := c.call(ctx, "/auth/verify-token", map[string]string{"token": token}, c.cfg.VerifyTimeout, true)
	if err != nil {
		metrics.RecordAuthVerification("unavailable")
		return nil, err
	}

	if rep.status == http.StatusUnauthorized || rep.status == http.StatusForbidden {
		metrics.RecordAuthVerification("invalid")
		return nil, errors.Unauthorized("Invalid or expired token")
	}

	var env envelope
	var data verifyData
	if err := json.Unmarshal(rep.body, &env); err != nil || rep.status >= 300 {
		metrics.RecordAuthVerification("invalid")
		return nil, errors.Unauthorized("Token verification failed")
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			metrics.RecordAuthVerification("invalid")
			return nil, errors.Unauthorized("Token verification failed")
		}
	}
	if !env.Success || !data.Valid || data.User == nil {
		metrics.RecordAuthVerification("invalid")
		return nil, errors.Unauthorized("Invalid or expired token")
	}

	if !IsAdmin(data.User.UserType) {
		metrics.RecordAuthVerification("forbidden")
		c.logger.WithFields(map[string]interface{}{
			"user_id":   data.User.ID,
			"user_type": data.User.UserType,
		}).Warn("Admin authentication failed: insufficient permissions")
		return nil, errors.Forbidden("Admin access required")
	}

	if c.cache != nil {
		c.cache.SetUntil(key, data.User, TokenExpiry(token))
	}
	metrics.RecordAuthVerification("ok")
	return data.User, nil
}

// Login exchanges admin credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	rep, err := c.call(ctx, "/auth/login", map[string]string{"email": email, "password": password}, c.cfg.LoginTimeout, false)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(rep.body, &env); err != nil {
		return nil, errors.Unauthorized("Login failed")
	}
	if rep.status >= 300 || !env.Success {
		msg := "Invalid credentials"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, errors.Unauthorized(msg)
	}

	var result LoginResult
	if err := json.Unmarshal(env.Data, &result); err != nil || result.Token == "" {
		return nil, errors.Unauthorized("Login failed")
	}
	if !IsAdmin(result.User.UserType) {
		c.logger.WithFields(map[string]interface{}{
			"user_id":   result.User.ID,
			"user_type": result.User.UserType,
		}).Warn("Non-admin user attempted to log in")
		return nil, errors.Forbidden("Admin access required")
	}
	return &result, nil
}

// Forget drops a cached verification, used on logout.
func (c *Client) Forget(token string) {
	if c.cache != nil && token != "" {
		c.cache.Remove(cacheKey(token))
	}
}

// BreakerState reports the circuit breaker state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) call(ctx context.Context, path string, payload interface{}, timeout time.Duration, internal bool) (*reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Internal("Failed to encode auth request", err)
	}

	rep, err := c.breaker.Execute(func() (*reply, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if internal {
			req.Header.Set("X-Internal-Service", "true")
			req.Header.Set("X-Service-Name", c.cfg.ServiceName)
			req.Header.Set("X-Service-Key", c.cfg.ServiceKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("auth service returned %d", resp.StatusCode)
		}
		return &reply{status: resp.StatusCode, body: raw}, nil
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.ServiceUnavailable("Authentication service is temporarily unavailable", err)
		}
		c.logger.With("path", path).WarnWithErr(err, "Auth service communication error")
		return nil, errors.ServiceUnavailable("Authentication service is temporarily unavailable", err)
	}
	return rep, nil
}

// IsAdmin reports whether userType may use the admin API.
func IsAdmin(userType string) bool {
	return userType == UserTypeAdmin || userType == UserTypeSuperadmin
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ Verifier = (*Client)(nil)
