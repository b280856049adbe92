package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // LOCAL_TIMEZONE must resolve in minimal containers

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Location is the grid's local time zone. Traffic windows and model time
	// features are read in it.
	Location *time.Location

	// Artifacts and reference data.
	ModelDir     string
	DataDir      string
	StationsFile string

	// Weather provider configuration.
	WeatherBaseURL      string
	WeatherLat          float64
	WeatherLon          float64
	WeatherTimeout      time.Duration
	FallbackTemperature float64
	FallbackWindSpeed   float64

	// OpenRouteService routing and isochrone configuration.
	ORSAPIKey        string
	ORSBaseURL       string
	RoutingEnabled   bool
	RoutingTimeout   time.Duration
	IsochroneTimeout time.Duration
	RouteCacheSize   int
	RouteCacheTTL    time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseBoundedDuration("WEATHER_TIMEOUT", "5s", 5*time.Second)
	if err != nil {
		return nil, err
	}
	routingTimeout, err := parseBoundedDuration("ROUTING_TIMEOUT", "10s", 10*time.Second)
	if err != nil {
		return nil, err
	}
	isochroneTimeout, err := parseBoundedDuration("ISOCHRONE_TIMEOUT", "15s", 15*time.Second)
	if err != nil {
		return nil, err
	}

	routeCacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("ROUTE_CACHE_TTL", "5m"))
	if err != nil || routeCacheTTL <= 0 {
		return nil, errors.New("invalid ROUTE_CACHE_TTL")
	}

	location, err := time.LoadLocation(sharedcfg.EnvOrDefault("LOCAL_TIMEZONE", "Asia/Karachi"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_TIMEZONE: %w", err)
	}

	var weatherLat, weatherLon, fallbackTemp, fallbackWind float64
	for _, f := range []struct {
		key, def string
		dst      *float64
	}{
		{"WEATHER_LAT", "24.8607", &weatherLat},
		{"WEATHER_LON", "67.0011", &weatherLon},
		{"FALLBACK_TEMPERATURE", "32.5", &fallbackTemp},
		{"FALLBACK_WIND_SPEED", "15.0", &fallbackWind},
	} {
		v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(f.key, f.def), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s", f.key)
		}
		*f.dst = v
	}

	orsKey := os.Getenv("ORS_API_KEY")
	routingEnabled := orsKey != ""
	if v := os.Getenv("ROUTING_ENABLED"); v != "" {
		routingEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Location:        location,

		ModelDir:     sharedcfg.EnvOrDefault("MODEL_DIR", "models"),
		DataDir:      sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		StationsFile: os.Getenv("STATIONS_FILE"),

		WeatherBaseURL:      sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherLat:          weatherLat,
		WeatherLon:          weatherLon,
		WeatherTimeout:      weatherTimeout,
		FallbackTemperature: fallbackTemp,
		FallbackWindSpeed:   fallbackWind,

		ORSAPIKey:        orsKey,
		ORSBaseURL:       sharedcfg.EnvOrDefault("ORS_BASE_URL", "https://api.openrouteservice.org"),
		RoutingEnabled:   routingEnabled,
		RoutingTimeout:   routingTimeout,
		IsochroneTimeout: isochroneTimeout,
		RouteCacheSize:   parseRouteCacheSize(),
		RouteCacheTTL:    routeCacheTTL,
	}

	if cfg.WeatherLat < -90 || cfg.WeatherLat > 90 {
		return nil, errors.New("WEATHER_LAT out of range")
	}
	if cfg.WeatherLon < -180 || cfg.WeatherLon > 180 {
		return nil, errors.New("WEATHER_LON out of range")
	}
	if cfg.RoutingEnabled && cfg.ORSAPIKey == "" {
		return nil, errors.New("ROUTING_ENABLED is true but ORS_API_KEY is not set")
	}

	return cfg, nil
}

// parseBoundedDuration reads a positive duration no longer than limit.
func parseBoundedDuration(key, def string, limit time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 || d > limit {
		return 0, fmt.Errorf("invalid %s: must be a duration in (0, %s]", key, limit)
	}
	return d, nil
}

func parseRouteCacheSize() int {
	if s := os.Getenv("ROUTE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 500
}
