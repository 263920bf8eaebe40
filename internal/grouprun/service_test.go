package grouprun

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var groupRunColumns = []string{"id", "title", "date", "time", "distance_km", "pace", "participants", "max_participants", "location", "organizer", "difficulty"}

func TestCreateAndFetchGroupRuns(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO group_runs`).
		WithArgs(pgxmock.AnyArg(), "Morning 5K", "2024-01-16", "7:00 AM", 5.0, "6:00", 1, 10, "Track", "You", "easy").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	created, err := svc.CreateGroupRun(context.Background(), GroupRun{
		Title: "Morning 5K", Date: "2024-01-16", Time: "7:00 AM", DistanceKm: 5, Pace: "6:00", MaxParticipants: 10, Location: "Track",
	})
	if err != nil {
		t.Fatalf("create group run: %v", err)
	}
	if created.ID == "" || created.Participants != 1 || created.Organizer != "You" {
		t.Fatalf("unexpected created run: %+v", created)
	}

	mock.ExpectQuery(`SELECT id, title, date, time, distance_km, pace, participants, max_participants, location, organizer, difficulty`).
		WillReturnRows(pgxmock.NewRows(groupRunColumns).
			AddRow(created.ID, "Morning 5K", "2024-01-16", "7:00 AM", 5.0, "6:00", 1, 10, "Track", "You", "easy"))

	runs, err := svc.FetchGroupRuns(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != created.ID {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateDeleteGroupRun(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	svc := NewService(mock)

	mock.ExpectQuery(`FROM group_runs WHERE id=\$1`).
		WithArgs("gr-1").
		WillReturnRows(pgxmock.NewRows(groupRunColumns).
			AddRow("gr-1", "Old", "2024-01-16", "7:00 AM", 5.0, "6:00", 3, 10, "Track", "Alex", "easy"))
	mock.ExpectExec(`UPDATE group_runs`).
		WithArgs("gr-1", "New", "2024-01-16", "7:00 AM", 5.0, "6:00", 10, "Track", "hard").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	updated, err := svc.UpdateGroupRun(context.Background(), "gr-1", GroupRun{Title: "New", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.Participants != 3 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	mock.ExpectExec(`DELETE FROM group_runs`).
		WithArgs("gr-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.DeleteGroupRun(context.Background(), "gr-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM group_runs`).
		WithArgs("gr-404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := svc.DeleteGroupRun(context.Background(), "gr-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`FROM group_runs WHERE id=\$1`).
		WithArgs("gr-404").
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.UpdateGroupRun(context.Background(), "gr-404", GroupRun{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJoinGroupRun(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	svc := NewService(mock)

	mock.ExpectQuery(`UPDATE group_runs\s+SET participants = participants \+ 1`).
		WithArgs("gr-1").
		WillReturnRows(pgxmock.NewRows(groupRunColumns).
			AddRow("gr-1", "Run", "2024-01-16", "7:00 AM", 5.0, "6:00", 4, 10, "Track", "Alex", "easy"))
	joined, err := svc.JoinGroupRun(context.Background(), "gr-1")
	if err != nil || joined.Participants != 4 {
		t.Fatalf("join: %v %+v", err, joined)
	}

	mock.ExpectQuery(`UPDATE group_runs`).
		WithArgs("gr-full").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM group_runs WHERE id=\$1`).
		WithArgs("gr-full").
		WillReturnRows(pgxmock.NewRows(groupRunColumns).
			AddRow("gr-full", "Run", "2024-01-16", "7:00 AM", 5.0, "6:00", 10, 10, "Track", "Alex", "easy"))
	if _, err := svc.JoinGroupRun(context.Background(), "gr-full"); !errors.Is(err, ErrFull) {
		t.Fatalf("expected full, got %v", err)
	}

	mock.ExpectQuery(`UPDATE group_runs`).
		WithArgs("gr-404").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM group_runs WHERE id=\$1`).
		WithArgs("gr-404").
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.JoinGroupRun(context.Background(), "gr-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFetchGroupRunsError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM group_runs`).WillReturnError(errors.New("boom"))
	if _, err := NewService(mock).FetchGroupRuns(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFull(t *testing.T) {
	if (GroupRun{Participants: 5}).Full() {
		t.Fatalf("unlimited run should never be full")
	}
	if !(GroupRun{Participants: 5, MaxParticipants: 5}).Full() {
		t.Fatalf("expected full")
	}
}

func TestNewGroupRunDefaults(t *testing.T) {
	g := NewGroupRun("gr-1", GroupRun{Title: "Hill repeats", Participants: 7})
	if g.ID != "gr-1" || g.Participants != 1 || g.Organizer != "You" || g.Difficulty != "easy" {
		t.Fatalf("unexpected defaults %+v", g)
	}
	g = NewGroupRun("gr-2", GroupRun{Organizer: "Coach", Difficulty: "hard"})
	if g.Organizer != "Coach" || g.Difficulty != "hard" {
		t.Fatalf("explicit fields overwritten %+v", g)
	}
}
