package remote

import (
	"context"
	"errors"
	"testing"

	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/task"
)

func TestMemoryGroupRuns(t *testing.T) {
	m := NewMemory(0, nil)
	ctx := context.Background()

	created, err := m.CreateGroupRun(ctx, grouprun.GroupRun{Title: "Sunrise", Date: "2024-02-01", MaxParticipants: 2})
	if err != nil || created.Participants != 1 || created.Organizer != "You" || created.Difficulty != "easy" {
		t.Fatalf("create: %v %+v", err, created)
	}
	joined, err := m.JoinGroupRun(ctx, created.ID)
	if err != nil || joined.Participants != 2 {
		t.Fatalf("join: %v", err)
	}
	if _, err := m.JoinGroupRun(ctx, created.ID); !errors.Is(err, grouprun.ErrFull) {
		t.Fatalf("expected full, got %v", err)
	}
	updated, err := m.UpdateGroupRun(ctx, created.ID, grouprun.GroupRun{Title: "Sunset"})
	if err != nil || updated.Title != "Sunset" || updated.Participants != 2 {
		t.Fatalf("update: %v", err)
	}
	if err := m.DeleteGroupRun(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteGroupRun(ctx, created.ID); !errors.Is(err, grouprun.ErrNotFound) {
		t.Fatalf("expected not found")
	}
	runs, _ := m.FetchGroupRuns(ctx)
	if len(runs) != 0 {
		t.Fatalf("expected empty list")
	}
}

func TestMemoryTasks(t *testing.T) {
	m := NewMemory(0, nil)
	m.Seed(nil, []task.Task{{ID: "t1", Title: "Loop"}}, nil)

	done, err := m.UpdateTaskCompletion(context.Background(), "t1", true)
	if err != nil || !done.Completed {
		t.Fatalf("complete task: %v", err)
	}
	if _, err := m.UpdateTaskCompletion(context.Background(), "t9", true); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected not found")
	}
	tasks, _ := m.FetchTasks(context.Background())
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestMemoryGameLifecycle(t *testing.T) {
	m := NewMemory(50, nil)
	ctx := context.Background()

	g, err := m.CreateTeamRunGame(ctx, game.Game{
		Title:       "Explorer",
		CreatedBy:   "alex",
		Checkpoints: []game.Checkpoint{{Name: "Library", Latitude: 1, Longitude: 1}},
	})
	if err != nil || g.Status != game.Pending || g.Checkpoints[0].ID == "" {
		t.Fatalf("create game: %v", err)
	}

	g, err = m.JoinTeamRunGame(ctx, g.ID, "A")
	if err != nil || len(g.Participants) != 1 {
		t.Fatalf("join: %v", err)
	}
	pid := g.Participants[0].ID
	cp := g.Checkpoints[0]

	if _, err := m.SubmitGamePhoto(ctx, g.ID, pid, game.Photo{CheckpointID: cp.ID, Latitude: 1, Longitude: 1}); !errors.Is(err, game.ErrInvalidTransition) {
		t.Fatalf("expected photo rejected before start, got %v", err)
	}
	if _, err := m.StartTeamRunGame(ctx, g.ID, "sam"); !errors.Is(err, game.ErrNotCreator) {
		t.Fatalf("expected not creator")
	}
	if _, err := m.StartTeamRunGame(ctx, g.ID, "alex"); err != nil {
		t.Fatalf("start: %v", err)
	}

	photo, err := m.SubmitGamePhoto(ctx, g.ID, pid, game.Photo{CheckpointID: cp.ID, Latitude: 1.0001, Longitude: 1})
	if err != nil || photo.ID == "" {
		t.Fatalf("photo: %v", err)
	}

	route := []location.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 1.01, Longitude: 1}, {Latitude: 1.01, Longitude: 1.01}, {Latitude: 1, Longitude: 1.01}}
	g, err = m.UpdateGameParticipant(ctx, g.ID, pid, game.ParticipantUpdate{Route: route, CompletionTimeSec: 600, Completed: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if g.Status != game.Completed || g.Participants[0].AreaKm2 <= 0 || len(g.Participants[0].Photos) != 1 {
		t.Fatalf("unexpected final game %+v", g)
	}

	games, _ := m.FetchTeamRunGames(ctx)
	games[0].Participants[0].Name = "mutated"
	again, _ := m.FetchTeamRunGames(ctx)
	if again[0].Participants[0].Name != "A" {
		t.Fatalf("fetch must return copies")
	}
}

func TestMemoryFailedMutationKeepsState(t *testing.T) {
	m := NewMemory(0, nil)
	m.Seed(nil, nil, []game.Game{{ID: "g1", CreatedBy: "alex", Status: game.Pending, Participants: []game.Participant{{ID: "p1"}}}})

	if _, err := m.UpdateGameParticipant(context.Background(), "g1", "p1", game.ParticipantUpdate{Completed: true}); !errors.Is(err, game.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	games, _ := m.FetchTeamRunGames(context.Background())
	if games[0].Participants[0].Completed {
		t.Fatalf("rejected update leaked into state")
	}
	if _, err := m.JoinTeamRunGame(context.Background(), "nope", "x"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("expected not found")
	}
}
