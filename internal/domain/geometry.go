package domain

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by Distance.
	EarthRadiusKm = 6371.0

	// AverageSpeedKmh is the assumed urban driving speed for local estimates.
	AverageSpeedKmh = 30.0
)

// Distance returns the great-circle (haversine) distance between two points in km.
func Distance(p1, p2 Point) float64 {
	lat1 := radians(p1.Lat)
	lat2 := radians(p2.Lat)
	dLat := radians(p2.Lat - p1.Lat)
	dLon := radians(p2.Lng - p1.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// TrafficFactor maps a local hour of day (0-23) to a travel-time multiplier.
func TrafficFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour < 10:
		return 1.5
	case hour >= 16 && hour < 20:
		return 1.6
	case hour >= 10 && hour < 16:
		return 1.2
	default:
		return 1.0
	}
}

// EstimateRoute builds a local travel estimate from straight-line distance.
func EstimateRoute(distanceKm, trafficFactor float64) RouteEstimate {
	base := distanceKm / AverageSpeedKmh * 60
	return RouteEstimate{
		DistanceKm:      distanceKm,
		BaseMinutes:     base,
		AdjustedMinutes: base * trafficFactor,
		Source:          SourceEstimated,
	}
}

// ReachableRadiusKm is the straight-line distance covered in the given minutes
// at AverageSpeedKmh.
func ReachableRadiusKm(minutes int) float64 {
	return AverageSpeedKmh / 60 * float64(minutes)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
