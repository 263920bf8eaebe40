package route

import (
	"backend-campusrun/internal/location"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LineString converts samples to an orb line in lon/lat order.
func LineString(coords []location.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Longitude, c.Latitude}
	}
	return ls
}

// Feature wraps a route as a GeoJSON feature, bounded and annotated with its
// analysis when one is available.
func Feature(id string, coords []location.Coordinate) *geojson.Feature {
	ls := LineString(coords)
	f := geojson.NewFeature(ls)
	f.ID = id
	if len(ls) > 0 {
		bound := ls.Bound()
		f.BBox = geojson.NewBBox(bound)
	}
	if a, ok := Analyze(coords); ok {
		f.Properties["distance_km"] = a.TotalDistanceKm
		f.Properties["route_type"] = string(a.RouteType)
		f.Properties["difficulty"] = string(a.Difficulty)
	}
	return f
}
