package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
)

// CenterSource lists the service centers available for dispatch.
type CenterSource interface {
	Centers() []domain.ServiceCenter
}

// Resolver finds the service center nearest to a point and estimates the
// crew's travel time from it.
type Resolver struct {
	centers CenterSource
	router  domain.Router
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewResolver creates a Resolver. A nil router means every route is estimated
// locally from straight-line distance.
func NewResolver(centers CenterSource, router domain.Router, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{centers: centers, router: router, logger: logger, metrics: metrics}
}

// Nearest returns the closest service center to p and a travel estimate from
// that center to p for the given local hour. When refined is set the router is
// asked first; any router failure falls back to the local estimate, so the
// only error is missing reference data.
//
// Equidistant centers resolve to the first one in load order. That is an
// artifact of the scan, not a guarantee.
func (r *Resolver) Nearest(ctx context.Context, p domain.Point, refined bool, hour int) (domain.ResolvedResource, error) {
	centers := r.centers.Centers()
	if len(centers) == 0 {
		return domain.ResolvedResource{}, fmt.Errorf("service centers: %w", domain.ErrReferenceDataUnavailable)
	}

	best, bestDist := 0, math.Inf(1)
	for i, c := range centers {
		if d := domain.Distance(p, c.Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	center := centers[best]
	factor := domain.TrafficFactor(hour)

	res := domain.ResolvedResource{Center: center, TrafficFactor: factor}
	if refined {
		if route, ok := r.route(ctx, center, p); ok {
			route.AdjustedMinutes = route.BaseMinutes * factor
			route.Source = domain.SourceRemote
			res.Route = route
			return res, nil
		}
	}
	res.Route = domain.EstimateRoute(bestDist, factor)
	return res, nil
}

func (r *Resolver) route(ctx context.Context, center domain.ServiceCenter, dest domain.Point) (domain.RouteEstimate, bool) {
	if r.router == nil {
		r.metrics.Fallbacks.WithLabelValues("routing").Inc()
		return domain.RouteEstimate{}, false
	}
	route, err := r.router.Route(ctx, center.Location, dest)
	if err != nil {
		r.metrics.Fallbacks.WithLabelValues("routing").Inc()
		if !errors.Is(err, domain.ErrNotConfigured) {
			r.logger.Warn("routing failed, estimating from distance", "center", center.Name, "error", err)
		}
		return domain.RouteEstimate{}, false
	}
	return route, true
}
