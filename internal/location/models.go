package location

import (
	"context"
	"errors"
	"time"

	"backend-campusrun/internal/shared/geo"
)

var (
	ErrUnavailable = errors.New("location unavailable")
	ErrTimeout     = errors.New("location request timed out")
)

// Coordinate is one location sample. Optional readings are nil when the
// platform did not report them.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	// Resumed marks the first sample recorded after a pause. No leg is
	// measured into it.
	Resumed bool `json:"resumed,omitempty"`
}

func (c Coordinate) Point() geo.Point {
	return geo.Point{Lat: c.Latitude, Lng: c.Longitude}
}

func (c Coordinate) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

func Points(coords []Coordinate) []geo.Point {
	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = c.Point()
	}
	return points
}

type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
)

type Accuracy string

const (
	AccuracyBalanced   Accuracy = "balanced"
	AccuracyHigh       Accuracy = "high"
	AccuracyNavigation Accuracy = "navigation"
)

// WatchOptions throttle a subscription. Zero values disable a filter.
type WatchOptions struct {
	Accuracy     Accuracy
	MinInterval  time.Duration
	MinDistanceM float64
}

type PositionOptions struct {
	Accuracy   Accuracy
	Timeout    time.Duration
	MaximumAge time.Duration
}

type Handler func(Coordinate)

// Subscription identifies an active watch on a Provider.
type Subscription struct {
	ID string
}

// Provider is the host location capability. Handlers may be invoked from any
// goroutine and must return quickly.
type Provider interface {
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context, opts PositionOptions) (Coordinate, error)
	Subscribe(ctx context.Context, handler Handler, opts WatchOptions) (Subscription, error)
	Unsubscribe(sub Subscription) error
}
