package geo

import "math"

const (
	EarthRadiusKm = 6371.0

	// metersPerDegree is the length of one degree of latitude in the
	// equirectangular projection used for area estimates.
	metersPerDegree = 111320.0
)

type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// HaversineKm returns the great-circle distance between two points in kilometers.
// Inputs are not range-checked.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := ToRadians(lat2 - lat1)
	dLng := ToRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(ToRadians(lat1))*math.Cos(ToRadians(lat2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func DistanceKm(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// WithinRadius reports whether p lies within radiusM meters of center.
func WithinRadius(center, p Point, radiusM float64) bool {
	return DistanceKm(center, p)*1000 <= radiusM
}
