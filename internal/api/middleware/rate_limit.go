package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows max requests per window for each client IP. Tokens
// refill continuously, so a client that used its whole budget regains
// one request every window/max.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	max       int
	window    time.Duration
	rate      rate.Limit
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter for max requests per window
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		max:      max,
		window:   window,
		rate:     rate.Every(window / time.Duration(max)),
		now:      time.Now,
	}
}

// Allow reports whether key may make another request
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(now)
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.max)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops visitors idle for a whole window; their buckets are full
// again by then.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window {
			delete(rl.visitors, key)
		}
	}
	rl.lastSweep = now
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// RateLimit returns a middleware that rejects requests over budget with
// 429 RATE_LIMITED.
func RateLimit(rl *RateLimiter, message string, log *logger.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(rl.max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("RateLimit-Limit", limit)
			ip := ClientIP(r)
			if !rl.Allow(ip) {
				log.WithFields(map[string]interface{}{
					"ip":     ip,
					"path":   r.URL.Path,
					"method": r.Method,
				}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int((rl.window/time.Duration(rl.max)).Seconds())+1))
				utils.WriteError(w, errors.RateLimited(message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
