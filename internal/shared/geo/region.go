package geo

import "math"

const (
	DefaultRegionPadding = 0.01
	minRegionDelta       = 0.01
)

// Region is a map viewport: a center with latitude/longitude spans in degrees.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// RegionFor returns the viewport covering every point plus padding degrees.
// Spans never drop below 0.01°. ok is false when points is empty.
func RegionFor(points []Point, padding float64) (region Region, ok bool) {
	if len(points) == 0 {
		return Region{}, false
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	return Region{
		Latitude:       (minLat + maxLat) / 2,
		Longitude:      (minLng + maxLng) / 2,
		LatitudeDelta:  math.Max(maxLat-minLat+padding, minRegionDelta),
		LongitudeDelta: math.Max(maxLng-minLng+padding, minRegionDelta),
	}, true
}
