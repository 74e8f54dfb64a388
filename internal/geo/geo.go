package geo

import (
	"context"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// IsWithinRadius reports whether distance lies inside the geofence (boundary included).
func IsWithinRadius(distance, radiusMeters float64) bool {
	return distance <= radiusMeters
}

// PositionProvider yields the current device position. Implementations may block
// until the position is known and must honour ctx cancellation.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

type ProviderFunc func(ctx context.Context) (Coordinate, error)

func (f ProviderFunc) CurrentPosition(ctx context.Context) (Coordinate, error) {
	return f(ctx)
}

// Fixed returns a provider that always reports c.
func Fixed(c Coordinate) PositionProvider {
	return ProviderFunc(func(ctx context.Context) (Coordinate, error) {
		if err := ctx.Err(); err != nil {
			return Coordinate{}, err
		}
		return c, nil
	})
}
