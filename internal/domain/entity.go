package domain

import "time"

// Provenance tags.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceOverride = "override"

	SourceRemote    = "remote"
	SourceEstimated = "estimated"
)

// Point is a WGS-84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is a grid station with historical fault-risk metadata.
type Station struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Area        string  `json:"area"`
	Location    Point   `json:"coordinates"`
	RiskPenalty float64 `json:"risk_penalty"`
	RiskLabel   string  `json:"risk_level"`
	Color       string  `json:"color"`
}

// ResourceType distinguishes the kinds of service center that dispatch crews.
type ResourceType string

const (
	ResourceServiceCenter  ResourceType = "service_center"
	ResourceMaintenanceHub ResourceType = "maintenance_hub"
)

// ServiceCenter is a repair or maintenance center capable of dispatching a crew.
type ServiceCenter struct {
	Name     string       `json:"name"`
	Type     ResourceType `json:"type"`
	Location Point        `json:"coordinates"`
}

// WeatherReading holds the conditions fed to the models.
type WeatherReading struct {
	Temperature float64   `json:"temperature"` // °C
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	Humidity    *float64  `json:"humidity,omitempty"`
	Source      string    `json:"source"` // "live", "fallback", "override"
	ObservedAt  time.Time `json:"observed_at"`
}

// RouteEstimate is a travel estimate between two points.
type RouteEstimate struct {
	DistanceKm      float64 `json:"distance_km"`
	BaseMinutes     float64 `json:"base_minutes"`
	AdjustedMinutes float64 `json:"adjusted_minutes"`
	Source          string  `json:"source"` // "remote", "estimated"
}

// ResolvedResource is the nearest service center together with the travel
// estimate that reaches the requested point.
type ResolvedResource struct {
	Center        ServiceCenter `json:"center"`
	Route         RouteEstimate `json:"route"`
	TrafficFactor float64       `json:"traffic_factor"`
}

// FaultPrediction is the advisory output of the two models.
type FaultPrediction struct {
	FaultType         string  `json:"fault_type"`
	Icon              string  `json:"fault_icon"`
	RestorationHours  float64 `json:"restoration_hours"`
	RestorationFormat string  `json:"restoration_formatted"`
}

// ETA is the total time until power is expected back.
type ETA struct {
	Hours     float64 `json:"hours"`
	Formatted string  `json:"formatted"`
}

// EstimationResult is the end-to-end answer for one location or station.
type EstimationResult struct {
	ID          string           `json:"id"`
	Station     Station          `json:"station"`
	Location    Point            `json:"location"`
	Conditions  WeatherReading   `json:"conditions"`
	Prediction  FaultPrediction  `json:"prediction"`
	Resource    ResolvedResource `json:"resource"`
	TotalETA    ETA              `json:"total_eta"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Coverage is the area a crew can reach within a time budget. Polygon is nil
// when the boundary could not be fetched; callers then draw a circle of
// RadiusKm around Center.
type Coverage struct {
	Center   Point   `json:"center"`
	Minutes  int     `json:"minutes"`
	Polygon  []Point `json:"polygon,omitempty"`
	RadiusKm float64 `json:"radius_km,omitempty"`
	Source   string  `json:"source"`
}
