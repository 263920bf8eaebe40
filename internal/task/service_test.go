package task

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var taskColumns = []string{"id", "title", "description", "location", "distance_km", "reward", "difficulty", "completed", "type"}

func TestFetchTasks(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, title, description, location, distance_km, reward, difficulty, completed, type`).
		WillReturnRows(pgxmock.NewRows(taskColumns).
			AddRow("t1", "Library Loop", "Run around the library", "Library", 1.5, 50, "easy", false, "exploration").
			AddRow("t2", "Stadium Stairs", "Climb", "Stadium", 0.8, 100, "hard", true, "challenge"))

	tasks, err := NewService(mock).FetchTasks(context.Background())
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Reward != 100 || !tasks[1].Completed {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`(?s)INSERT INTO tasks.*ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), "Quad Sprint", "", "Quad", 0.4, 20, "easy", false, "social").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO tasks`).
		WithArgs("t1", "Library Loop", "", "Library", 1.5, 50, "easy", false, "exploration").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	svc := NewService(mock)
	created, err := svc.CreateTask(context.Background(), Task{Title: "Quad Sprint", Location: "Quad", DistanceKm: 0.4, Reward: 20, Difficulty: "easy", Type: "social"})
	if err != nil || !created {
		t.Fatalf("create task: %v", err)
	}
	created, err = svc.CreateTask(context.Background(), Task{ID: "t1", Title: "Library Loop", Location: "Library", DistanceKm: 1.5, Reward: 50, Difficulty: "easy", Type: "exploration"})
	if err != nil || created {
		t.Fatalf("expected existing task skipped: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateTaskCompletion(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	svc := NewService(mock)

	mock.ExpectQuery(`UPDATE tasks SET completed=\$2`).
		WithArgs("t1", true).
		WillReturnRows(pgxmock.NewRows(taskColumns).
			AddRow("t1", "Library Loop", "", "Library", 1.5, 50, "easy", true, "exploration"))
	updated, err := svc.UpdateTaskCompletion(context.Background(), "t1", true)
	if err != nil || !updated.Completed {
		t.Fatalf("update: %v", err)
	}

	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs("missing", true).
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.UpdateTaskCompletion(context.Background(), "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
