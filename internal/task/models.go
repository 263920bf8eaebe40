package task

import "errors"

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	DistanceKm  float64 `json:"distance"`
	Reward      int     `json:"reward"`
	Difficulty  string  `json:"difficulty"`
	Completed   bool    `json:"completed"`
	Type        string  `json:"type"`
}
