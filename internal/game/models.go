package game

import (
	"errors"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
)

var (
	ErrNotFound            = errors.New("team run game not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotCreator          = errors.New("only the creator can start the game")
	ErrInvalidTransition   = errors.New("game status does not allow this")
	ErrParticipantFinal    = errors.New("participant already completed")
	ErrUnknownCheckpoint   = errors.New("unknown checkpoint")
	ErrOutsideCheckpoint   = errors.New("photo taken outside the checkpoint radius")
)

type Status string

const (
	Pending   Status = "pending"
	Active    Status = "active"
	Completed Status = "completed"
)

// DefaultCheckpointRadiusM is how close a photo must be taken to count for a
// checkpoint.
const DefaultCheckpointRadiusM = 50.0

type Checkpoint struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (c Checkpoint) Point() geo.Point {
	return geo.Point{Lat: c.Latitude, Lng: c.Longitude}
}

type Photo struct {
	ID           string  `json:"id"`
	CheckpointID string  `json:"checkpoint_id"`
	URI          string  `json:"uri"`
	Timestamp    int64   `json:"timestamp"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type Participant struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Route             []location.Coordinate `json:"route"`
	Photos            []Photo               `json:"photos"`
	AreaKm2           float64               `json:"area"`
	DistanceKm        float64               `json:"distance"`
	CompletionTimeSec float64               `json:"completion_time"`
	Completed         bool                  `json:"completed"`
}

type Area struct {
	Center  geo.Point `json:"center"`
	RadiusM float64   `json:"radius"`
}

type Game struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Date         string        `json:"date"`
	Time         string        `json:"time"`
	CreatedBy    string        `json:"created_by"`
	Status       Status        `json:"status"`
	Checkpoints  []Checkpoint  `json:"checkpoints"`
	Participants []Participant `json:"participants"`
	Area         Area          `json:"game_area"`
	StartTime    *int64        `json:"start_time,omitempty"`
	EndTime      *int64        `json:"end_time,omitempty"`
}

// ParticipantUpdate carries a participant's progress. Area and distance are
// always derived from Route and cannot be set directly.
type ParticipantUpdate struct {
	Route             []location.Coordinate `json:"route"`
	CompletionTimeSec float64               `json:"completion_time"`
	Completed         bool                  `json:"completed"`
}

type Standing struct {
	Rank              int     `json:"rank"`
	ParticipantID     string  `json:"participant_id"`
	Name              string  `json:"name"`
	AreaKm2           float64 `json:"area"`
	DistanceKm        float64 `json:"distance"`
	CompletionTimeSec float64 `json:"completion_time"`
}

// FinishReport summarizes a participant's route at the moment they finish.
type FinishReport struct {
	Game               Game        `json:"game"`
	Participant        Participant `json:"participant"`
	ClosedLoop         bool        `json:"closed_loop"`
	VisitedCheckpoints []string    `json:"visited_checkpoints"`
	MissingCheckpoints []string    `json:"missing_checkpoints"`
}
