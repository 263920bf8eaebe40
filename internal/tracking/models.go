package tracking

import "time"

// Metrics is a point-in-time view of the active session.
type Metrics struct {
	DistanceKm     float64 `json:"distance"`
	PaceMinPerKm   float64 `json:"pace"`
	Cadence        float64 `json:"cadence"`
	ElevationGainM float64 `json:"elevation"`
	Calories       int     `json:"calories"`
}

// Policy holds the heuristic constants behind calories, cadence and step
// counting. They are linear proxies, not a physiological model.
type Policy struct {
	CaloriesPerKm         float64
	CaloriesPerElevationM float64
	CadenceSpeedFactor    float64
	CadenceBase           float64
	CadenceMinSamples     int
	StepSpeedThreshold    float64 // m/s
	StepDebounce          time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		CaloriesPerKm:         65,
		CaloriesPerElevationM: 0.1,
		CadenceSpeedFactor:    25,
		CadenceBase:           140,
		CadenceMinSamples:     10,
		StepSpeedThreshold:    0.5,
		StepDebounce:          400 * time.Millisecond,
	}
}
