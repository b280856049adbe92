package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Conditions are the nominal temperature and wind used when no live reading
// is available.
type Conditions struct {
	Temperature float64
	WindSpeed   float64
}

// Reading returns the nominal conditions as a fallback-tagged reading.
func (c Conditions) Reading(at time.Time) WeatherReading {
	return WeatherReading{
		Temperature: c.Temperature,
		WindSpeed:   c.WindSpeed,
		Source:      SourceFallback,
		ObservedAt:  at,
	}
}

// ResolveWeather asks the provider for current conditions. A nil provider or
// any provider failure yields the nominal conditions tagged "fallback", so the
// result is always usable.
func ResolveWeather(ctx context.Context, provider WeatherProvider, nominal Conditions, now time.Time, logger *slog.Logger) WeatherReading {
	if provider == nil {
		return nominal.Reading(now)
	}

	reading, err := provider.CurrentWeather(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			logger.Warn("weather lookup failed, using nominal conditions",
				"temperature", nominal.Temperature,
				"wind_speed", nominal.WindSpeed,
				"error", err,
			)
		}
		return nominal.Reading(now)
	}
	reading.Source = SourceLive
	if reading.ObservedAt.IsZero() {
		reading.ObservedAt = now
	}
	return reading
}

// ApplyOverrides replaces reading fields with caller-supplied values. When
// both are supplied the reading is tagged "override".
func ApplyOverrides(reading WeatherReading, temperature, windSpeed *float64) WeatherReading {
	if temperature != nil {
		reading.Temperature = *temperature
	}
	if windSpeed != nil {
		reading.WindSpeed = *windSpeed
	}
	if temperature != nil && windSpeed != nil {
		reading.Source = SourceOverride
		reading.Humidity = nil
	}
	return reading
}
