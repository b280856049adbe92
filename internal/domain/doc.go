// Package domain models grid stations, repair service centers, and the
// derived estimates the service hands back to callers.
//
// # Provenance
//
// Every derived value records where it came from so a caller can tell a live
// external answer apart from a local estimate:
//
//	WeatherReading.Source   live | fallback | override
//	RouteEstimate.Source    remote | estimated
//	Coverage.Source         remote | estimated
//
// A "fallback" or "estimated" tag is never an error. Provider failures are
// absorbed at the point of use and only the tag changes.
//
// # Coordinates
//
// Points are always (lat, lng) in WGS-84 degrees inside this package. Providers
// that speak (lng, lat) translate at the adapter boundary.
//
// # Travel time model
//
// Without a routing provider, travel time is the great-circle distance driven
// at AverageSpeedKmh, scaled by a time-of-day traffic factor:
//
//	[07,10) 1.5   morning peak
//	[10,16) 1.2   daytime
//	[16,20) 1.6   evening peak
//	otherwise 1.0
//
// Hours are local to the grid. Wrap the service clock with LocalClock so the
// windows line up when the host runs in another zone.
package domain
