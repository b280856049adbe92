package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
)

const (
	directionsProvider = "ors-directions"
	isochroneProvider  = "ors-isochrones"
	profile            = "driving-car"
)

var errEmptyResult = errors.New("empty result")

// Client implements domain.Router and domain.IsochroneProvider using the
// OpenRouteService v2 API. An empty apiKey leaves the client unconfigured.
type Client struct {
	apiKey    string
	routeHTTP *http.Client
	isoHTTP   *http.Client
	baseURL   string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClient creates an OpenRouteService client. Directions and isochrone calls
// carry separate timeouts.
func NewClient(apiKey, baseURL string, routeTimeout, isochroneTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:    apiKey,
		routeHTTP: &http.Client{Timeout: routeTimeout},
		isoHTTP:   &http.Client{Timeout: isochroneTimeout},
		baseURL:   baseURL,
		metrics:   metrics,
		logger:    logger,
	}
}

// Route returns the driving distance and free-flow duration from origin to dest.
func (c *Client) Route(ctx context.Context, origin, dest domain.Point) (domain.RouteEstimate, error) {
	if c.apiKey == "" {
		c.metrics.ProviderRequests.WithLabelValues(directionsProvider, "unconfigured").Inc()
		return domain.RouteEstimate{}, domain.ErrNotConfigured
	}

	body := directionsRequest{Coordinates: [][2]float64{lngLat(origin), lngLat(dest)}}
	var resp directionsResponse
	err := c.post(ctx, c.routeHTTP, directionsProvider, "/v2/directions/"+profile, body, &resp)
	if err == nil && len(resp.Routes) == 0 {
		err = errEmptyResult
	}
	if err != nil {
		c.recordFailure(directionsProvider, err)
		return domain.RouteEstimate{}, &domain.ProviderError{Provider: directionsProvider, Err: err}
	}
	c.metrics.ProviderRequests.WithLabelValues(directionsProvider, "success").Inc()

	summary := resp.Routes[0].Summary
	minutes := summary.Duration / 60
	return domain.RouteEstimate{
		DistanceKm:      summary.Distance / 1000,
		BaseMinutes:     minutes,
		AdjustedMinutes: minutes,
		Source:          domain.SourceRemote,
	}, nil
}

// Isochrone returns the outer boundary reachable from center within minutes,
// as (lat, lng) vertices.
func (c *Client) Isochrone(ctx context.Context, center domain.Point, minutes int) ([]domain.Point, error) {
	if c.apiKey == "" {
		c.metrics.ProviderRequests.WithLabelValues(isochroneProvider, "unconfigured").Inc()
		return nil, domain.ErrNotConfigured
	}

	body := isochroneRequest{
		Locations: [][2]float64{lngLat(center)},
		Range:     []int{minutes * 60},
		RangeType: "time",
	}
	var resp featureCollection
	err := c.post(ctx, c.isoHTTP, isochroneProvider, "/v2/isochrones/"+profile, body, &resp)
	var ring [][]float64
	if err == nil {
		ring = resp.outerRing()
		if len(ring) == 0 {
			err = errEmptyResult
		}
	}
	if err != nil {
		c.recordFailure(isochroneProvider, err)
		return nil, &domain.ProviderError{Provider: isochroneProvider, Err: err}
	}
	c.metrics.ProviderRequests.WithLabelValues(isochroneProvider, "success").Inc()

	// OpenRouteService uses lng,lat order.
	polygon := make([]domain.Point, 0, len(ring))
	for _, v := range ring {
		if len(v) < 2 {
			continue
		}
		polygon = append(polygon, domain.Point{Lat: v[1], Lng: v[0]})
	}
	return polygon, nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, provider, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/geo+json")

	start := time.Now()
	resp, err := hc.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openrouteservice API error: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) recordFailure(provider string, err error) {
	outcome := "error"
	if errors.Is(err, errEmptyResult) {
		outcome = "empty"
	}
	c.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	c.logger.Warn("openrouteservice request failed", "provider", provider, "error", err)
}

func lngLat(p domain.Point) [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

// OpenRouteService API request and response types.

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"` // [lng, lat]
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
	} `json:"routes"`
}

type isochroneRequest struct {
	Locations [][2]float64 `json:"locations"` // [lng, lat]
	Range     []int        `json:"range"`     // seconds
	RangeType string       `json:"range_type"`
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Type        string        `json:"type"`
			Coordinates [][][]float64 `json:"coordinates"` // rings of [lng, lat]
		} `json:"geometry"`
	} `json:"features"`
}

func (fc featureCollection) outerRing() [][]float64 {
	if len(fc.Features) == 0 {
		return nil
	}
	g := fc.Features[0].Geometry
	if g.Type != "Polygon" || len(g.Coordinates) == 0 {
		return nil
	}
	return g.Coordinates[0]
}
