package integration_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/grid-eta-service/internal/adapter/http"
	"github.com/couchcryptid/grid-eta-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/grid-eta-service/internal/adapter/ors"
	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/estimate"
	"github.com/couchcryptid/grid-eta-service/internal/mockdata"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/couchcryptid/grid-eta-service/internal/predict"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testORSKey = "integration-key"

// providers fakes Open-Meteo and OpenRouteService. Each can be switched to
// failing mid-test.
type providers struct {
	weatherDown    atomic.Bool
	routingDown    atomic.Bool
	directionCalls atomic.Int32
}

func (p *providers) weather(w http.ResponseWriter, _ *http.Request) {
	if p.weatherDown.Load() {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"current":{"time":"2026-03-10T08:00","temperature_2m":30.1,"relative_humidity_2m":64,"wind_speed_10m":12.0}}`))
}

func (p *providers) ors(w http.ResponseWriter, r *http.Request) {
	if p.routingDown.Load() || r.Header.Get("Authorization") != testORSKey {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v2/directions/driving-car":
		p.directionCalls.Add(1)
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":8000,"duration":900}}]}`))
	case "/v2/isochrones/driving-car":
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Polygon","coordinates":[[[67.10,24.82],[67.15,24.82],[67.15,24.87],[67.10,24.82]]]}}]}`))
	default:
		http.NotFound(w, r)
	}
}

type stack struct {
	api       *httptest.Server
	providers *providers
	metrics   *observability.Metrics
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	// 08:00 local, a 1.5x traffic window.
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC))

	dir := t.TempDir()
	modelDir, dataDir := filepath.Join(dir, "models"), filepath.Join(dir, "data")
	bundle, err := mockdata.Generate(mockdata.Options{Seed: 11, Records: 120, Trees: 8, Depth: 5})
	require.NoError(t, err)
	require.NoError(t, bundle.Write(modelDir, dataDir))

	artifacts := model.LoadArtifacts(modelDir, logger)
	catalog := refdata.Load(dataDir, "", logger)

	p := &providers{}
	weatherSrv := httptest.NewServer(http.HandlerFunc(p.weather))
	t.Cleanup(weatherSrv.Close)
	orsSrv := httptest.NewServer(http.HandlerFunc(p.ors))
	t.Cleanup(orsSrv.Close)

	weather := openmeteo.NewClient(weatherSrv.URL, domain.Point{Lat: 24.8607, Lng: 67.0011}, 2*time.Second, metrics, logger)
	orsClient := ors.NewClient(testORSKey, orsSrv.URL, 2*time.Second, 2*time.Second, metrics, logger)

	svc := estimate.NewService(estimate.Deps{
		Catalog:    catalog,
		Weather:    weather,
		Nominal:    domain.Conditions{Temperature: 32.5, WindSpeed: 15},
		Resolver:   estimate.NewResolver(catalog, ors.NewCachedRouter(orsClient, 100, time.Minute, clock, metrics), logger, metrics),
		Isochrones: orsClient,
		Predictor:  predict.New(predict.ModelsFromArtifacts(artifacts), clock, logger, metrics),
		Clock:      clock,
		Logger:     logger,
		Metrics:    metrics,
	})
	srv := httpadapter.NewServer(":0", httpadapter.API{Estimator: svc, Catalog: catalog, Artifacts: artifacts}, logger)

	api := httptest.NewServer(srv)
	t.Cleanup(api.Close)
	return &stack{api: api, providers: p, metrics: metrics}
}

type estimateBody struct {
	Station struct {
		ID string `json:"id"`
	} `json:"station"`
	Conditions struct {
		Temperature float64 `json:"temperature"`
		Source      string  `json:"source"`
	} `json:"conditions"`
	Prediction struct {
		FaultType        string  `json:"fault_type"`
		RestorationHours float64 `json:"restoration_hours"`
	} `json:"prediction"`
	Resource struct {
		Name          string  `json:"name"`
		DistanceKm    float64 `json:"distance_km"`
		TravelMinutes int     `json:"travel_minutes"`
		Source        string  `json:"source"`
	} `json:"resource"`
	TotalETA struct {
		Hours     float64 `json:"hours"`
		Formatted string  `json:"formatted"`
	} `json:"total_eta"`
}

func (s *stack) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(s.api.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestEstimateFlow_LiveProviders(t *testing.T) {
	s := newStack(t)

	var body estimateBody
	require.Equal(t, http.StatusOK, s.get(t, "/api/v1/estimate?station=PLANT_01", &body))

	assert.Equal(t, "PLANT_01", body.Station.ID)
	assert.Equal(t, domain.SourceLive, body.Conditions.Source)
	assert.InDelta(t, 30.1, body.Conditions.Temperature, 1e-9)

	assert.Equal(t, "Korangi IBC", body.Resource.Name)
	assert.Equal(t, domain.SourceRemote, body.Resource.Source)
	assert.InDelta(t, 8.0, body.Resource.DistanceKm, 1e-9)
	assert.Equal(t, 23, body.Resource.TravelMinutes, "15 min at 1.5x traffic")

	assert.Contains(t, mockdata.FaultTypes, body.Prediction.FaultType)
	assert.GreaterOrEqual(t, body.Prediction.RestorationHours, predict.MinRestorationHours)
	assert.LessOrEqual(t, body.Prediction.RestorationHours, predict.MaxRestorationHours)
	assert.GreaterOrEqual(t, body.TotalETA.Hours, body.Prediction.RestorationHours)
	assert.NotEqual(t, "N/A", body.TotalETA.Formatted)

	// Same station again is served from the route cache.
	require.Equal(t, http.StatusOK, s.get(t, "/api/v1/estimate?station=PLANT_01", &body))
	assert.Equal(t, int32(1), s.providers.directionCalls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.RouteCache.WithLabelValues("hit")), 0)
}

func TestEstimateFlow_ProvidersDown(t *testing.T) {
	s := newStack(t)
	s.providers.weatherDown.Store(true)
	s.providers.routingDown.Store(true)

	var body estimateBody
	require.Equal(t, http.StatusOK, s.get(t, "/api/v1/estimate?lat=24.92&lng=67.09", &body))

	assert.Equal(t, domain.SourceFallback, body.Conditions.Source)
	assert.InDelta(t, 32.5, body.Conditions.Temperature, 0)
	assert.Equal(t, "Gulshan IBC", body.Resource.Name)
	assert.Equal(t, domain.SourceEstimated, body.Resource.Source)
	assert.GreaterOrEqual(t, body.TotalETA.Hours, body.Prediction.RestorationHours)

	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.Fallbacks.WithLabelValues("weather")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.Fallbacks.WithLabelValues("routing")), 0)
}

func TestCoverageFlow(t *testing.T) {
	s := newStack(t)

	var live struct {
		Polygon  []domain.Point `json:"polygon"`
		RadiusKm float64        `json:"radius_km"`
		Source   string         `json:"source"`
	}
	require.Equal(t, http.StatusOK, s.get(t, "/api/v1/coverage?center=Korangi+IBC&minutes=20", &live))
	assert.Equal(t, domain.SourceRemote, live.Source)
	require.Len(t, live.Polygon, 4)
	assert.Equal(t, domain.Point{Lat: 24.82, Lng: 67.10}, live.Polygon[0])

	s.providers.routingDown.Store(true)
	var fallback struct {
		Polygon  []domain.Point `json:"polygon"`
		RadiusKm float64        `json:"radius_km"`
		Source   string         `json:"source"`
	}
	require.Equal(t, http.StatusOK, s.get(t, "/api/v1/coverage?center=Korangi+IBC&minutes=20", &fallback))
	assert.Equal(t, domain.SourceEstimated, fallback.Source)
	assert.Empty(t, fallback.Polygon)
	assert.InDelta(t, 10.0, fallback.RadiusKm, 1e-9)
}

func TestEstimateFlow_ClientErrors(t *testing.T) {
	s := newStack(t)

	var unknown struct {
		Error string   `json:"error"`
		Valid []string `json:"valid"`
	}
	require.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/estimate?station=PLANT_99", &unknown))
	assert.Contains(t, unknown.Error, "PLANT_99")
	assert.Equal(t, []string{"PLANT_01", "PLANT_02", "PLANT_03", "MAINT_01"}, unknown.Valid)

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/estimate", nil))
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/coverage?center=Nowhere&minutes=10", nil))
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/coverage?center=Korangi+IBC&minutes=500", nil))
	assert.Equal(t, http.StatusOK, s.get(t, "/readyz", nil))
}
