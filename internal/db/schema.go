package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv_snapshots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS group_runs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		pace TEXT NOT NULL DEFAULT '',
		participants INT NOT NULL DEFAULT 0,
		max_participants INT NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		organizer TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'easy',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		reward INT NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT 'easy',
		completed BOOLEAN NOT NULL DEFAULT false,
		type TEXT NOT NULL DEFAULT 'exploration'
	)`,
	`CREATE TABLE IF NOT EXISTS team_run_games (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		created_by TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		center_lat DOUBLE PRECISION NOT NULL,
		center_lng DOUBLE PRECISION NOT NULL,
		radius_m DOUBLE PRECISION NOT NULL,
		start_time TIMESTAMPTZ,
		end_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS game_checkpoints (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES team_run_games(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS game_participants (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES team_run_games(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		route JSONB NOT NULL DEFAULT '[]',
		area_km2 DOUBLE PRECISION NOT NULL DEFAULT 0,
		distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		completion_time_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
		completed BOOLEAN NOT NULL DEFAULT false,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS game_photos (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES team_run_games(id) ON DELETE CASCADE,
		participant_id TEXT NOT NULL REFERENCES game_participants(id) ON DELETE CASCADE,
		checkpoint_id TEXT NOT NULL REFERENCES game_checkpoints(id) ON DELETE CASCADE,
		uri TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		taken_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables used by the remote collections and the
// Postgres snapshot store. Every statement is idempotent.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
