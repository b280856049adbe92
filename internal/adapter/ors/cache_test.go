package ors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingRouter struct {
	calls  int
	result domain.RouteEstimate
	err    error
}

func (m *countingRouter) Route(_ context.Context, _, _ domain.Point) (domain.RouteEstimate, error) {
	m.calls++
	return m.result, m.err
}

// --- CachedRouter tests ---

func TestCachedRouter_CacheHit(t *testing.T) {
	inner := &countingRouter{result: domain.RouteEstimate{DistanceKm: 12.4, BaseMinutes: 21, Source: domain.SourceRemote}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedRouter(inner, 10, time.Minute, clockwork.NewFakeClock(), metrics)

	r1, err := cached.Route(context.Background(), center, station)
	require.NoError(t, err)
	r2, err := cached.Route(context.Background(), center, station)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RouteCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RouteCache.WithLabelValues("miss")))
}

func TestCachedRouter_DirectionMatters(t *testing.T) {
	inner := &countingRouter{result: domain.RouteEstimate{Source: domain.SourceRemote}}
	cached := NewCachedRouter(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, _ = cached.Route(context.Background(), center, station)
	_, _ = cached.Route(context.Background(), station, center)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedRouter_ErrorsNotCached(t *testing.T) {
	inner := &countingRouter{err: &domain.ProviderError{Provider: "ors-directions", Err: errors.New("429")}}
	cached := NewCachedRouter(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := cached.Route(context.Background(), center, station)
	require.Error(t, err)
	_, err = cached.Route(context.Background(), center, station)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedRouter_EntryExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingRouter{result: domain.RouteEstimate{Source: domain.SourceRemote}}
	cached := NewCachedRouter(inner, 10, time.Minute, clock, observability.NewMetricsForTesting())

	_, _ = cached.Route(context.Background(), center, station)
	clock.Advance(59 * time.Second)
	_, _ = cached.Route(context.Background(), center, station)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Second)
	_, _ = cached.Route(context.Background(), center, station)
	assert.Equal(t, 2, inner.calls, "expired entry refetched")
}

// --- LRU cache unit tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string](2, time.Hour, clockwork.NewFakeClock())

	c.put("a", "A")
	c.put("b", "B")
	c.put("c", "C") // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", v)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string](2, time.Hour, clockwork.NewFakeClock())

	c.put("a", "A")
	c.put("b", "B")
	c.get("a")
	c.put("c", "C")

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateRefreshesExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newLRUCache[string](2, time.Minute, clock)

	c.put("a", "A1")
	clock.Advance(50 * time.Second)
	c.put("a", "A2")
	clock.Advance(50 * time.Second)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
}
