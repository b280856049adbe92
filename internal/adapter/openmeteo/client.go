package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
)

const providerName = "open-meteo"

// Client implements domain.WeatherProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	location   domain.Point
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a weather client for a fixed reference location.
func NewClient(baseURL string, location domain.Point, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		location: location,
		metrics:  metrics,
		logger:   logger,
	}
}

// CurrentWeather returns current temperature, wind speed, and humidity at the
// reference location. Every failure is reported as a *domain.ProviderError.
func (c *Client) CurrentWeather(ctx context.Context) (domain.WeatherReading, error) {
	start := time.Now()
	reading, err := c.fetch(ctx)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return domain.WeatherReading{}, &domain.ProviderError{Provider: providerName, Err: err}
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return reading, nil
}

func (c *Client) fetch(ctx context.Context) (domain.WeatherReading, error) {
	params := url.Values{
		"latitude":        {strconv.FormatFloat(c.location.Lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(c.location.Lng, 'f', 4, 64)},
		"current":         {"temperature_2m,relative_humidity_2m,wind_speed_10m"},
		"wind_speed_unit": {"kmh"},
		"timezone":        {"UTC"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherReading{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var forecast response
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("decode response: %w", err)
	}
	if forecast.Current.Temperature == nil || forecast.Current.WindSpeed == nil {
		return domain.WeatherReading{}, errors.New("response missing temperature or wind speed")
	}

	reading := domain.WeatherReading{
		Temperature: *forecast.Current.Temperature,
		WindSpeed:   *forecast.Current.WindSpeed,
		Humidity:    forecast.Current.Humidity,
		Source:      domain.SourceLive,
	}
	if t, err := time.Parse("2006-01-02T15:04", forecast.Current.Time); err == nil {
		reading.ObservedAt = t.UTC()
	} else {
		c.logger.Debug("unparseable observation time", "time", forecast.Current.Time)
	}
	return reading, nil
}

// Open-Meteo API response types.

type response struct {
	Current current `json:"current"`
}

type current struct {
	Time        string   `json:"time"` // ISO8601 without seconds, in the requested timezone
	Temperature *float64 `json:"temperature_2m"`
	Humidity    *float64 `json:"relative_humidity_2m"`
	WindSpeed   *float64 `json:"wind_speed_10m"`
}
