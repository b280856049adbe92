package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/grid-eta-service/internal/adapter/http"
	"github.com/couchcryptid/grid-eta-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/grid-eta-service/internal/adapter/ors"
	"github.com/couchcryptid/grid-eta-service/internal/config"
	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/estimate"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/couchcryptid/grid-eta-service/internal/predict"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := domain.LocalClock(clockwork.NewRealClock(), cfg.Location)

	// Load reference data and model artifacts once; both are read-only afterwards.
	catalog := refdata.Load(cfg.DataDir, cfg.StationsFile, logger)
	artifacts := model.LoadArtifacts(cfg.ModelDir, logger)
	for name, ok := range artifacts.Loaded() {
		v := 0.0
		if ok {
			v = 1
		}
		metrics.ArtifactLoaded.WithLabelValues(name).Set(v)
	}

	weather := openmeteo.NewClient(
		cfg.WeatherBaseURL,
		domain.Point{Lat: cfg.WeatherLat, Lng: cfg.WeatherLon},
		cfg.WeatherTimeout,
		metrics,
		logger,
	)

	// Routing and isochrones are feature-flagged via ROUTING_ENABLED / ORS_API_KEY.
	var (
		router     domain.Router
		isochrones domain.IsochroneProvider
	)
	if cfg.RoutingEnabled {
		client := ors.NewClient(cfg.ORSAPIKey, cfg.ORSBaseURL, cfg.RoutingTimeout, cfg.IsochroneTimeout, metrics, logger)
		router = ors.NewCachedRouter(client, cfg.RouteCacheSize, cfg.RouteCacheTTL, clock, metrics)
		isochrones = client
		logger.Info("openrouteservice routing enabled",
			"cache_size", cfg.RouteCacheSize,
			"cache_ttl", cfg.RouteCacheTTL,
			"timeout", cfg.RoutingTimeout,
		)
	} else {
		logger.Info("openrouteservice routing disabled, travel times estimated from distance")
	}

	svc := estimate.NewService(estimate.Deps{
		Catalog:    catalog,
		Weather:    weather,
		Nominal:    domain.Conditions{Temperature: cfg.FallbackTemperature, WindSpeed: cfg.FallbackWindSpeed},
		Resolver:   estimate.NewResolver(catalog, router, logger, metrics),
		Isochrones: isochrones,
		Predictor:  predict.New(predict.ModelsFromArtifacts(artifacts), clock, logger, metrics),
		Clock:      clock,
		Logger:     logger,
		Metrics:    metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.API{
		Estimator: svc,
		Catalog:   catalog,
		Artifacts: artifacts,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
