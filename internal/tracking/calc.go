package tracking

import (
	"math"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
)

// CalculateDistance sums the great-circle legs of coords in kilometers. A
// sample marked Resumed starts a new leg, so the gap across a pause is not
// counted.
func CalculateDistance(coords []location.Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(coords); i++ {
		if coords[i].Resumed {
			continue
		}
		total += geo.DistanceKm(coords[i-1].Point(), coords[i].Point())
	}
	return total
}

// CalculatePace returns minutes per kilometer, or 0 when nothing was covered.
func CalculatePace(distanceKm, durationSec float64) float64 {
	if distanceKm <= 0 || durationSec <= 0 {
		return 0
	}
	return (durationSec / 60) / distanceKm
}

// AverageSpeed returns km/h, or 0 for an empty duration.
func AverageSpeed(distanceKm, durationSec float64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return distanceKm / (durationSec / 3600)
}

// ElevationChange totals climbs and descents between consecutive altitude
// readings. Samples without altitude are skipped.
func ElevationChange(coords []location.Coordinate) (gain, loss float64) {
	var prev *float64
	for _, c := range coords {
		if c.Altitude == nil {
			continue
		}
		if prev != nil {
			diff := *c.Altitude - *prev
			if diff > 0 {
				gain += diff
			} else {
				loss -= diff
			}
		}
		prev = c.Altitude
	}
	return gain, loss
}

func elevationGain(altitudes []float64) float64 {
	gain := 0.0
	for i := 1; i < len(altitudes); i++ {
		if diff := altitudes[i] - altitudes[i-1]; diff > 0 {
			gain += diff
		}
	}
	return gain
}

func (p Policy) Calories(distanceKm, elevationGainM float64) int {
	return int(math.Round(distanceKm*p.CaloriesPerKm + elevationGainM*p.CaloriesPerElevationM))
}

// Cadence estimates steps per minute from average speed over coords. It is a
// placeholder until step-level sensor data exists.
func (p Policy) Cadence(coords []location.Coordinate, durationSec float64) float64 {
	if len(coords) < p.CadenceMinSamples || durationSec <= 0 {
		return 0
	}
	speed := AverageSpeed(CalculateDistance(coords), durationSec)
	return math.Floor(speed*p.CadenceSpeedFactor + p.CadenceBase)
}
