package domain

import "context"

// WeatherProvider fetches current conditions at a fixed reference location.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context) (WeatherReading, error)
}

// Router fetches a driving route between two points. BaseMinutes in the
// returned estimate is free-flow time; callers apply the traffic factor.
// Implementations return ErrNotConfigured when no credential is set and a
// *ProviderError for every other failure, including an empty route.
type Router interface {
	Route(ctx context.Context, origin, dest Point) (RouteEstimate, error)
}

// IsochroneProvider fetches the boundary reachable from center within minutes.
// Vertices are (lat, lng).
type IsochroneProvider interface {
	Isochrone(ctx context.Context, center Point, minutes int) ([]Point, error)
}
