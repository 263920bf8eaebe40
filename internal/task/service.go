package task

import (
	"context"
	"errors"

	"backend-campusrun/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Location, &t.DistanceKm, &t.Reward, &t.Difficulty, &t.Completed, &t.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (s *Service) FetchTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, description, location, distance_km, reward, difficulty, completed, type
		FROM tasks
		ORDER BY completed, title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a seeded task. Tasks are authored by campus staff, so
// there is no HTTP route for it. created is false when a task with the same
// id already exists.
func (s *Service) CreateTask(ctx context.Context, input Task) (created bool, err error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO tasks (id, title, description, location, distance_km, reward, difficulty, completed, type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, input.ID, input.Title, input.Description, input.Location, input.DistanceKm, input.Reward, input.Difficulty, input.Completed, input.Type)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Service) UpdateTaskCompletion(ctx context.Context, id string, completed bool) (Task, error) {
	return scanTask(s.db.QueryRow(ctx, `
		UPDATE tasks SET completed=$2
		WHERE id=$1
		RETURNING id, title, description, location, distance_km, reward, difficulty, completed, type
	`, id, completed))
}
