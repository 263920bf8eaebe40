package grouprun

import "errors"

const (
	defaultOrganizer  = "You"
	defaultDifficulty = "easy"
)

var (
	ErrNotFound = errors.New("group run not found")
	ErrFull     = errors.New("group run is full")
)

type GroupRun struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DistanceKm      float64 `json:"distance"`
	Pace            string  `json:"pace"`
	Participants    int     `json:"participants"`
	MaxParticipants int     `json:"max_participants"`
	Location        string  `json:"location"`
	Organizer       string  `json:"organizer"`
	Difficulty      string  `json:"difficulty"`
}

// Full reports whether the run has reached its capacity. A zero capacity
// means unlimited.
func (g GroupRun) Full() bool {
	return g.MaxParticipants > 0 && g.Participants >= g.MaxParticipants
}

// NewGroupRun prepares input for storage under id. The organizer is the
// first participant.
func NewGroupRun(id string, input GroupRun) GroupRun {
	input.ID = id
	input.Participants = 1
	if input.Organizer == "" {
		input.Organizer = defaultOrganizer
	}
	if input.Difficulty == "" {
		input.Difficulty = defaultDifficulty
	}
	return input
}
