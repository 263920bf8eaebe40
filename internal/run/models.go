package run

import (
	"context"
	"time"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
	"backend-campusrun/internal/tracking"
)

const (
	runsKey      = "runs"
	gaitTestsKey = "gaitTests"

	TypeSolo = "solo"

	gpsRouteName = "GPS Tracked Run"
)

// Run is a finished workout as stored in the history.
type Run struct {
	ID           string                `json:"id"`
	Date         string                `json:"date"`
	DurationSec  int64                 `json:"duration"`
	DistanceKm   float64               `json:"distance"`
	PaceMinPerKm float64               `json:"pace"`
	Calories     int                   `json:"calories"`
	Type         string                `json:"type"`
	Route        string                `json:"route,omitempty"`
	Coordinates  []location.Coordinate `json:"coordinates,omitempty"`
	Cadence      float64               `json:"cadence,omitempty"`
	AvgSpeedKmh  float64               `json:"avg_speed,omitempty"`
}

type GaitTest struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Improvements []string `json:"improvements"`
}

// LiveStats is the projection refreshed on every live tick.
type LiveStats struct {
	Distance   float64              `json:"distance"`
	Pace       float64              `json:"pace"`
	Cadence    float64              `json:"cadence"`
	ElapsedSec int64                `json:"elapsed"`
	Running    bool                 `json:"running"`
	Paused     bool                 `json:"paused"`
	Last       *location.Coordinate `json:"last,omitempty"`
}

// Options tune the coordinator. Zero durations fall back to defaults.
type Options struct {
	LiveTick          time.Duration
	GroupRunsStale    time.Duration
	GroupRunsRefresh  time.Duration
	TasksStale        time.Duration
	TasksRefresh      time.Duration
	GamesStale        time.Duration
	GamesRefresh      time.Duration
	CheckpointRadiusM float64
	RegionPadding     float64
}

func DefaultOptions() Options {
	return Options{
		LiveTick:          time.Second,
		GroupRunsStale:    30 * time.Second,
		GroupRunsRefresh:  time.Minute,
		TasksStale:        time.Minute,
		TasksRefresh:      2 * time.Minute,
		GamesStale:        30 * time.Second,
		GamesRefresh:      time.Minute,
		CheckpointRadiusM: 50,
		RegionPadding:     geo.DefaultRegionPadding,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LiveTick <= 0 {
		o.LiveTick = d.LiveTick
	}
	if o.GroupRunsStale <= 0 {
		o.GroupRunsStale = d.GroupRunsStale
	}
	if o.GroupRunsRefresh <= 0 {
		o.GroupRunsRefresh = d.GroupRunsRefresh
	}
	if o.TasksStale <= 0 {
		o.TasksStale = d.TasksStale
	}
	if o.TasksRefresh <= 0 {
		o.TasksRefresh = d.TasksRefresh
	}
	if o.GamesStale <= 0 {
		o.GamesStale = d.GamesStale
	}
	if o.GamesRefresh <= 0 {
		o.GamesRefresh = d.GamesRefresh
	}
	if o.CheckpointRadiusM <= 0 {
		o.CheckpointRadiusM = d.CheckpointRadiusM
	}
	if o.RegionPadding <= 0 {
		o.RegionPadding = d.RegionPadding
	}
	return o
}

// Tracker is the positioning session the coordinator drives.
type Tracker interface {
	Start(ctx context.Context, onUpdate location.Handler) bool
	Stop() []location.Coordinate
	Pause() bool
	Resume() bool
	Paused() bool
	Coordinates() []location.Coordinate
	CurrentMetrics() tracking.Metrics
	Region(padding float64) (geo.Region, bool)
	Policy() tracking.Policy
}

// Broadcaster fans live stats out to subscribers of a topic.
type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

const LiveTopic = "live"
