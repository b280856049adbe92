package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Coverage budget bounds in minutes.
const (
	MinCoverageMinutes = 1
	MaxCoverageMinutes = 120
)

// Catalog is the reference data the service reads.
type Catalog interface {
	CenterSource
	Station(id string) (domain.Station, error)
	NearestStation(p domain.Point) (domain.Station, error)
	Center(name string) (domain.ServiceCenter, error)
}

// Predictor produces best-effort fault and restoration predictions.
type Predictor interface {
	PredictFault(station domain.Station, c domain.Conditions) string
	PredictRestoration(station domain.Station, fault string, c domain.Conditions) float64
}

// Request asks for an estimate at a station or at an arbitrary point. Exactly
// one of StationID and Location must be set. Temperature and WindSpeed
// override the live weather when present.
type Request struct {
	StationID   string
	Location    *domain.Point
	Temperature *float64
	WindSpeed   *float64
}

// Deps are the collaborators of a Service. Weather, Isochrones, and the
// resolver's router may be nil; those stages then use local estimates.
type Deps struct {
	Catalog    Catalog
	Weather    domain.WeatherProvider
	Nominal    domain.Conditions
	Resolver   *Resolver
	Isochrones domain.IsochroneProvider
	Predictor  Predictor
	Clock      clockwork.Clock
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Service composes weather, resource resolution, and prediction into a single
// estimate. It holds no mutable state and is safe for concurrent use.
type Service struct {
	deps Deps
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	return &Service{deps: d}
}

// Estimate runs the full pipeline for one request. Provider failures never
// surface as errors; only invalid input, unknown stations, and missing
// reference data do.
func (s *Service) Estimate(ctx context.Context, req Request) (domain.EstimationResult, error) {
	res, err := s.estimate(ctx, req)
	s.deps.Metrics.Estimations.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (s *Service) estimate(ctx context.Context, req Request) (domain.EstimationResult, error) {
	if err := validate(req); err != nil {
		return domain.EstimationResult{}, err
	}

	var (
		station  domain.Station
		location domain.Point
		err      error
	)
	if req.Location != nil {
		location = *req.Location
		station, err = s.deps.Catalog.NearestStation(location)
	} else {
		station, err = s.deps.Catalog.Station(req.StationID)
		location = station.Location
	}
	if err != nil {
		return domain.EstimationResult{}, err
	}

	now := s.deps.Clock.Now()
	reading := s.conditions(ctx, req, now)
	conditions := domain.Conditions{Temperature: reading.Temperature, WindSpeed: reading.WindSpeed}

	resource, err := s.deps.Resolver.Nearest(ctx, location, true, now.Hour())
	if err != nil {
		return domain.EstimationResult{}, err
	}

	fault := s.deps.Predictor.PredictFault(station, conditions)
	hours := s.deps.Predictor.PredictRestoration(station, fault, conditions)

	result := domain.EstimationResult{
		ID:         uuid.NewString(),
		Station:    station,
		Location:   location,
		Conditions: reading,
		Prediction: domain.FaultPrediction{
			FaultType:         fault,
			Icon:              domain.FaultIcon(fault),
			RestorationHours:  hours,
			RestorationFormat: domain.FormatDuration(hours),
		},
		Resource:    resource,
		TotalETA:    domain.NewETA(hours, resource.Route.AdjustedMinutes),
		GeneratedAt: now,
	}
	s.deps.Logger.Debug("estimate complete",
		"id", result.ID,
		"station", station.ID,
		"fault", fault,
		"center", resource.Center.Name,
		"route_source", resource.Route.Source,
		"weather_source", reading.Source,
	)
	return result, nil
}

// conditions resolves the weather. Full overrides skip the provider entirely.
func (s *Service) conditions(ctx context.Context, req Request, now time.Time) domain.WeatherReading {
	if req.Temperature != nil && req.WindSpeed != nil {
		return domain.ApplyOverrides(s.deps.Nominal.Reading(now), req.Temperature, req.WindSpeed)
	}
	reading := domain.ResolveWeather(ctx, s.deps.Weather, s.deps.Nominal, now, s.deps.Logger)
	if reading.Source == domain.SourceFallback {
		s.deps.Metrics.Fallbacks.WithLabelValues("weather").Inc()
	}
	return domain.ApplyOverrides(reading, req.Temperature, req.WindSpeed)
}

// Coverage returns the area reachable from center within minutes. When the
// isochrone provider is missing or fails, it returns a circle estimate with no
// polygon.
func (s *Service) Coverage(ctx context.Context, center domain.Point, minutes int) domain.Coverage {
	circle := domain.Coverage{
		Center:   center,
		Minutes:  minutes,
		RadiusKm: domain.ReachableRadiusKm(minutes),
		Source:   domain.SourceEstimated,
	}
	if s.deps.Isochrones == nil {
		s.deps.Metrics.Fallbacks.WithLabelValues("isochrone").Inc()
		return circle
	}
	polygon, err := s.deps.Isochrones.Isochrone(ctx, center, minutes)
	if err != nil || len(polygon) == 0 {
		s.deps.Metrics.Fallbacks.WithLabelValues("isochrone").Inc()
		if err != nil && !errors.Is(err, domain.ErrNotConfigured) {
			s.deps.Logger.Warn("isochrone failed, using radius estimate", "minutes", minutes, "error", err)
		}
		return circle
	}
	return domain.Coverage{
		Center:  center,
		Minutes: minutes,
		Polygon: polygon,
		Source:  domain.SourceRemote,
	}
}

// CoverageForCenter resolves a service center by name and returns its coverage.
func (s *Service) CoverageForCenter(ctx context.Context, name string, minutes int) (domain.Coverage, error) {
	if minutes < MinCoverageMinutes || minutes > MaxCoverageMinutes {
		return domain.Coverage{}, fmt.Errorf("%w: minutes must be between %d and %d", domain.ErrInvalidInput, MinCoverageMinutes, MaxCoverageMinutes)
	}
	center, err := s.deps.Catalog.Center(name)
	if err != nil {
		return domain.Coverage{}, err
	}
	return s.Coverage(ctx, center.Location, minutes), nil
}

func validate(req Request) error {
	if (req.StationID == "") == (req.Location == nil) {
		return fmt.Errorf("%w: provide either a station or a location", domain.ErrInvalidInput)
	}
	if p := req.Location; p != nil {
		if !finite(p.Lat) || !finite(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return fmt.Errorf("%w: location out of range", domain.ErrInvalidInput)
		}
	}
	if v := req.Temperature; v != nil && !finite(*v) {
		return fmt.Errorf("%w: temperature must be finite", domain.ErrInvalidInput)
	}
	if v := req.WindSpeed; v != nil && (!finite(*v) || *v < 0) {
		return fmt.Errorf("%w: wind speed must be a non-negative number", domain.ErrInvalidInput)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownEntity):
		return "client_error"
	default:
		return "unavailable"
	}
}
