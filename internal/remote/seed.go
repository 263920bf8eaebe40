package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/task"
)

// Seed is the initial content of the shared collections, read from a JSON
// file at startup.
type Seed struct {
	GroupRuns []grouprun.GroupRun `json:"group_runs"`
	Tasks     []task.Task         `json:"tasks"`
	Games     []game.Game         `json:"team_run_games"`
}

func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed, nil
}

// SeedTasks inserts tasks that are not stored yet. Tasks have no create
// route, so this is how the database gets them. Group runs and games are
// created through the API.
func (b *Backend) SeedTasks(ctx context.Context, tasks []task.Task) (int, error) {
	added := 0
	for _, t := range tasks {
		ok, err := b.tasks.CreateTask(ctx, t)
		if err != nil {
			return added, fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
