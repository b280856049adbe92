//go:build ors

package ors

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real OpenRouteService API and require a valid ORS_API_KEY env var.
// Run with: go test -tags=ors ./internal/adapter/ors/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("ORS_API_KEY")
	if key == "" {
		t.Fatal("ORS_API_KEY must be set to run smoke tests")
	}
	return NewClient(key, "https://api.openrouteservice.org", 10*time.Second, 15*time.Second,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_Route(t *testing.T) {
	c := smokeClient(t)

	route, err := c.Route(context.Background(), center, station)
	require.NoError(t, err)

	straight := domain.Distance(center, station)
	assert.GreaterOrEqual(t, route.DistanceKm, straight, "road distance is at least straight-line distance")
	assert.Greater(t, route.BaseMinutes, 0.0)
	assert.Equal(t, domain.SourceRemote, route.Source)
}

func TestSmoke_Isochrone(t *testing.T) {
	c := smokeClient(t)

	polygon, err := c.Isochrone(context.Background(), center, 10)
	require.NoError(t, err)
	require.NotEmpty(t, polygon)

	// Vertices should sit near Karachi in (lat, lng) order.
	assert.InDelta(t, 24.8, polygon[0].Lat, 0.5)
	assert.InDelta(t, 67.0, polygon[0].Lng, 0.5)
}
