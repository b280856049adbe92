package ors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedRouter wraps a Router with an in-memory LRU cache whose entries
// expire after a fixed TTL. Repeated estimates for the same station reuse the
// route instead of spending rate-limited API quota.
type CachedRouter struct {
	inner   domain.Router
	cache   *lruCache[domain.RouteEstimate]
	metrics *observability.Metrics
}

// NewCachedRouter creates a cache decorator around a router.
func NewCachedRouter(inner domain.Router, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedRouter {
	return &CachedRouter{
		inner:   inner,
		cache:   newLRUCache[domain.RouteEstimate](maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedRouter) Route(ctx context.Context, origin, dest domain.Point) (domain.RouteEstimate, error) {
	key := fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
	if result, ok := c.cache.get(key); ok {
		c.metrics.RouteCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.RouteCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Route(ctx, origin, dest)
	if err != nil {
		// Failures are not cached.
		return result, err
	}
	c.cache.put(key, result)
	return result, nil
}

// lruCache is a simple thread-safe LRU cache with per-entry expiry.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
