package ors

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var (
	center  = domain.Point{Lat: 24.815, Lng: 67.028}
	station = domain.Point{Lat: 24.831, Lng: 67.132}
)

func testClient(baseURL, key string, timeout time.Duration) *Client {
	return &Client{
		apiKey:    key,
		routeHTTP: &http.Client{Timeout: timeout},
		isoHTTP:   &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		metrics:   observability.NewMetricsForTesting(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Route_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("Authorization"))

		var req directionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Coordinates, 2)
		assert.Equal(t, [2]float64{67.028, 24.815}, req.Coordinates[0], "origin sent as lng,lat")
		assert.Equal(t, [2]float64{67.132, 24.831}, req.Coordinates[1], "destination sent as lng,lat")

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":12400,"duration":1260}}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, testKey, 5*time.Second)
	route, err := c.Route(context.Background(), center, station)
	require.NoError(t, err)

	assert.InDelta(t, 12.4, route.DistanceKm, 1e-9)
	assert.InDelta(t, 21.0, route.BaseMinutes, 1e-9)
	assert.InDelta(t, 21.0, route.AdjustedMinutes, 1e-9)
	assert.Equal(t, domain.SourceRemote, route.Source)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues(directionsProvider, "success")))
}

func TestClient_Route_Unconfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := testClient(srv.URL, "", 5*time.Second)
	_, err := c.Route(context.Background(), center, station)

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.False(t, called, "no request without a credential")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues(directionsProvider, "unconfigured")))
}

func TestClient_Route_EmptyRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, testKey, 5*time.Second)
	_, err := c.Route(context.Background(), center, station)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues(directionsProvider, "empty")))
}

func TestClient_Route_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Rate Limit Exceeded"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, testKey, 5*time.Second).Route(context.Background(), center, station)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Route_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, testKey, 50*time.Millisecond).Route(context.Background(), center, station)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_Isochrone_SwapsCoordinateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/isochrones/driving-car", r.URL.Path)

		var req isochroneRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, [][2]float64{{67.028, 24.815}}, req.Locations)
		assert.Equal(t, []int{900}, req.Range)
		assert.Equal(t, "time", req.RangeType)

		w.Header().Set(headerContentType, "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Polygon","coordinates":[[[67.00,24.80],[67.05,24.80],[67.05,24.85],[67.00,24.80]]]}}]}`))
	}))
	defer srv.Close()

	polygon, err := testClient(srv.URL, testKey, 5*time.Second).Isochrone(context.Background(), center, 15)
	require.NoError(t, err)

	require.Len(t, polygon, 4)
	assert.Equal(t, domain.Point{Lat: 24.80, Lng: 67.00}, polygon[0])
	assert.Equal(t, domain.Point{Lat: 24.85, Lng: 67.05}, polygon[2])
}

func TestClient_Isochrone_Unconfigured(t *testing.T) {
	_, err := testClient("http://127.0.0.1:0", "", time.Second).Isochrone(context.Background(), center, 15)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestClient_Isochrone_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, testKey, 5*time.Second).Isochrone(context.Background(), center, 15)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_Isochrone_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, testKey, 5*time.Second).Isochrone(context.Background(), center, 15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
