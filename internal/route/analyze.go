package route

import (
	"math"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
	"backend-campusrun/internal/tracking"
)

type Type string

const (
	Loop         Type = "loop"
	OutAndBack   Type = "out-and-back"
	PointToPoint Type = "point-to-point"
)

type Difficulty string

const (
	Easy     Difficulty = "easy"
	Moderate Difficulty = "moderate"
	Hard     Difficulty = "hard"
)

const (
	LoopClosureKm    = 0.1
	outAndBackRatio  = 0.3
	hardDistanceKm   = 10
	hardGainM        = 200
	moderateDistance = 5
	moderateGainM    = 100
)

type Analysis struct {
	TotalDistanceKm float64    `json:"total_distance"`
	AverageSpeedKmh float64    `json:"average_speed"`
	MaxSpeedKmh     float64    `json:"max_speed"`
	ElevationGainM  float64    `json:"elevation_gain"`
	ElevationLossM  float64    `json:"elevation_loss"`
	RouteType       Type       `json:"route_type"`
	Difficulty      Difficulty `json:"difficulty"`
}

// Analyze summarizes a recorded route. ok is false with fewer than two
// samples.
func Analyze(coords []location.Coordinate) (Analysis, bool) {
	if len(coords) < 2 {
		return Analysis{}, false
	}

	a := Analysis{TotalDistanceKm: tracking.CalculateDistance(coords)}
	a.ElevationGainM, a.ElevationLossM = tracking.ElevationChange(coords)

	first, last := coords[0].Timestamp, coords[0].Timestamp
	for _, c := range coords {
		first = min(first, c.Timestamp)
		last = max(last, c.Timestamp)
		if c.Speed != nil {
			a.MaxSpeedKmh = math.Max(a.MaxSpeedKmh, *c.Speed*3.6)
		}
	}
	a.AverageSpeedKmh = tracking.AverageSpeed(a.TotalDistanceKm, float64(last-first)/1000)

	a.RouteType = classify(coords, a.TotalDistanceKm)
	a.Difficulty = grade(a.TotalDistanceKm, a.ElevationGainM)
	return a, true
}

func classify(coords []location.Coordinate, totalKm float64) Type {
	gap := geo.DistanceKm(coords[0].Point(), coords[len(coords)-1].Point())
	switch {
	case gap < LoopClosureKm:
		return Loop
	case gap < totalKm*outAndBackRatio:
		return OutAndBack
	default:
		return PointToPoint
	}
}

func grade(distanceKm, gainM float64) Difficulty {
	switch {
	case distanceKm > hardDistanceKm || gainM > hardGainM:
		return Hard
	case distanceKm > moderateDistance || gainM > moderateGainM:
		return Moderate
	default:
		return Easy
	}
}

// IsClosedLoop reports whether the route ends within thresholdKm of its start.
func IsClosedLoop(coords []location.Coordinate, thresholdKm float64) bool {
	if len(coords) < 2 {
		return false
	}
	return geo.DistanceKm(coords[0].Point(), coords[len(coords)-1].Point()) < thresholdKm
}

// Simplify keeps every step-th sample plus the final one so that roughly
// maxPoints remain. Routes already within the limit are returned as a copy.
func Simplify(coords []location.Coordinate, maxPoints int) []location.Coordinate {
	if maxPoints <= 0 || len(coords) <= maxPoints {
		return append([]location.Coordinate{}, coords...)
	}
	step := len(coords) / maxPoints
	out := make([]location.Coordinate, 0, maxPoints+1)
	for i := 0; i < len(coords); i += step {
		out = append(out, coords[i])
	}
	if (len(coords)-1)%step != 0 {
		out = append(out, coords[len(coords)-1])
	}
	return out
}

// Waypoints drops a marker each time intervalKm has been covered since the
// previous marker, and always ends on the final sample. A non-positive
// interval yields every sample after the first.
func Waypoints(coords []location.Coordinate, intervalKm float64) []location.Coordinate {
	out := []location.Coordinate{}
	if len(coords) < 2 {
		return out
	}
	acc := 0.0
	lastIdx := 0
	for i := 1; i < len(coords); i++ {
		acc += geo.DistanceKm(coords[i-1].Point(), coords[i].Point())
		if acc >= intervalKm {
			out = append(out, coords[i])
			acc = 0
			lastIdx = i
		}
	}
	if lastIdx < len(coords)-1 {
		out = append(out, coords[len(coords)-1])
	}
	return out
}
