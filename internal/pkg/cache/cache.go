// Package cache holds short-lived computed values such as health checks,
// aggregate metrics and token verifications.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a size-bounded cache whose entries expire after a fixed TTL or
// an earlier per-entry deadline.
type TTL[V any] struct {
	name string
	ttl  time.Duration
	lru  *expirable.LRU[string, entry[V]]
	now  func() time.Time

	mu       sync.Mutex
	inflight map[string]*call[V]
}

type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// New creates a cache named name, used as the metrics label.
func New[V any](name string, size int, ttl time.Duration) *TTL[V] {
	if size <= 0 {
		size = 128
	}
	return &TTL[V]{
		name:     name,
		ttl:      ttl,
		lru:      expirable.NewLRU[string, entry[V]](size, nil, ttl),
		now:      time.Now,
		inflight: make(map[string]*call[V]),
	}
}

// Get returns the cached value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if ok && !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	metrics.RecordCacheLookup(c.name, ok)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value for the cache TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.lru.Add(key, entry[V]{value: value})
}

// SetUntil stores value until deadline or the cache TTL, whichever is
// sooner. A deadline in the past stores nothing.
func (c *TTL[V]) SetUntil(key string, value V, deadline time.Time) {
	if !deadline.IsZero() && !c.now().Before(deadline) {
		return
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: deadline})
}

// Remove drops key.
func (c *TTL[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Purge drops every entry.
func (c *TTL[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *TTL[V]) Len() int {
	return c.lru.Len()
}

// TTL returns the configured entry lifetime.
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}

// GetOrLoad returns the cached value or calls load once for concurrent
// callers of the same key. Errors are not cached.
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.value, cl.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.value, cl.err = load(ctx)
	if cl.err == nil {
		c.Set(key, cl.value)
	}

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(cl.done)

	return cl.value, cl.err
}
