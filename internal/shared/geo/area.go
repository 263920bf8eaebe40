package geo

import "math"

// PolygonAreaKm2 estimates the area enclosed by an implicitly closed ring of points.
// Points are projected to local meters around the ring's first vertex and mean
// latitude, then summed with the shoelace formula. Fewer than three points
// enclose nothing. Self-intersecting rings are not corrected.
func PolygonAreaKm2(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var meanLat float64
	for _, p := range points {
		meanLat += p.Lat
	}
	meanLat /= float64(len(points))
	xScale := metersPerDegree * math.Cos(ToRadians(meanLat))

	origin := points[0]
	project := func(p Point) (float64, float64) {
		return (p.Lng - origin.Lng) * xScale, (p.Lat - origin.Lat) * metersPerDegree
	}

	var sum float64
	for i := range points {
		x1, y1 := project(points[i])
		x2, y2 := project(points[(i+1)%len(points)])
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum) / 2 / 1e6
}
