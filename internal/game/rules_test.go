package game

import (
	"errors"
	"math"
	"testing"
	"time"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
)

func sampleGame() Game {
	return Game{
		ID:        "g1",
		Title:     "Campus Explorer",
		CreatedBy: "alex",
		Status:    Pending,
		Checkpoints: []Checkpoint{
			{ID: "cp1", Name: "Library", Latitude: 40.7589, Longitude: -73.9851},
			{ID: "cp2", Name: "Gym", Latitude: 40.7614, Longitude: -73.9776},
		},
		Participants: []Participant{
			{ID: "p1", Name: "A"},
			{ID: "p2", Name: "B"},
		},
		Area: Area{Center: geo.Point{Lat: 40.76, Lng: -73.98}, RadiusM: 1000},
	}
}

// square of ~1 km side starting at the library checkpoint
func squareRoute() []location.Coordinate {
	lat, lng := 40.7589, -73.9851
	dLat := 1000 / 111320.0
	dLng := 1000 / (111320.0 * math.Cos(lat*math.Pi/180))
	return []location.Coordinate{
		{Latitude: lat, Longitude: lng},
		{Latitude: lat + dLat, Longitude: lng},
		{Latitude: lat + dLat, Longitude: lng + dLng},
		{Latitude: lat, Longitude: lng + dLng},
	}
}

func TestStartOnlyCreator(t *testing.T) {
	g := sampleGame()
	now := time.UnixMilli(1_700_000_000_000)

	if err := Start(&g, "someone", now); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected not creator, got %v", err)
	}
	if g.Status != Pending {
		t.Fatalf("status changed on rejected start")
	}
	if err := Start(&g, "alex", now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Status != Active || g.StartTime == nil || *g.StartTime != now.UnixMilli() {
		t.Fatalf("expected active game with start time")
	}
	if err := Start(&g, "alex", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on restart, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	g := sampleGame()
	p, err := Join(&g, "p3", "C")
	if err != nil || p.Name != "C" || len(g.Participants) != 3 {
		t.Fatalf("join: %v", err)
	}
	if p.Route == nil || p.Photos == nil {
		t.Fatalf("expected empty, non-nil collections")
	}

	g.Status = Completed
	if _, err := Join(&g, "p4", "D"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected closed game")
	}
}

func TestApplyUpdateWriteOnce(t *testing.T) {
	g := sampleGame()
	now := time.Now()

	if _, err := ApplyUpdate(&g, "p1", ParticipantUpdate{Completed: true}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected completion to require an active game")
	}

	// progress before completion is fine while pending
	if _, err := ApplyUpdate(&g, "p1", ParticipantUpdate{Route: squareRoute()[:2]}, now); err != nil {
		t.Fatalf("progress update: %v", err)
	}

	_ = Start(&g, "alex", now)
	p, err := ApplyUpdate(&g, "p1", ParticipantUpdate{Route: squareRoute(), CompletionTimeSec: 900, Completed: true}, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if math.Abs(p.AreaKm2-1.0) > 0.05 {
		t.Fatalf("expected ~1 km², got %f", p.AreaKm2)
	}
	if math.Abs(p.DistanceKm-3.0) > 0.05 {
		t.Fatalf("expected ~3 km path, got %f", p.DistanceKm)
	}

	if _, err := ApplyUpdate(&g, "p1", ParticipantUpdate{Route: nil, Completed: true}, now); !errors.Is(err, ErrParticipantFinal) {
		t.Fatalf("expected final participant, got %v", err)
	}
	if g.Participants[0].AreaKm2 != p.AreaKm2 {
		t.Fatalf("final fields changed")
	}
	if g.Status != Active {
		t.Fatalf("game should stay active while p2 runs")
	}

	if _, err := ApplyUpdate(&g, "p2", ParticipantUpdate{Route: squareRoute()[:2], CompletionTimeSec: 300, Completed: true}, now); err != nil {
		t.Fatalf("complete p2: %v", err)
	}
	if g.Status != Completed || g.EndTime == nil {
		t.Fatalf("expected game completed when all participants finish")
	}
	if g.Participants[1].AreaKm2 != 0 {
		t.Fatalf("two-point route encloses no area")
	}

	if _, err := ApplyUpdate(&g, "nobody", ParticipantUpdate{}, now); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected unknown participant")
	}
}

func TestCanFinish(t *testing.T) {
	g := sampleGame()
	now := time.Now()

	if err := CanFinish(g, "p1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected pending game to refuse, got %v", err)
	}
	if err := CanFinish(g, "nobody"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected unknown participant, got %v", err)
	}
	_ = Start(&g, "alex", now)
	if err := CanFinish(g, "p1"); err != nil {
		t.Fatalf("expected active game to accept: %v", err)
	}
	if _, err := ApplyUpdate(&g, "p1", ParticipantUpdate{Route: squareRoute(), Completed: true}, now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := CanFinish(g, "p1"); !errors.Is(err, ErrParticipantFinal) {
		t.Fatalf("expected participant final, got %v", err)
	}
}

func TestValidatePhoto(t *testing.T) {
	g := sampleGame()
	near := Photo{CheckpointID: "cp1", Latitude: 40.7590, Longitude: -73.9851}

	if err := ValidatePhoto(g, "p1", near, 50); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected photos rejected while pending")
	}
	g.Status = Active
	if err := ValidatePhoto(g, "p1", near, 50); err != nil {
		t.Fatalf("expected photo accepted: %v", err)
	}
	if err := ValidatePhoto(g, "p1", Photo{CheckpointID: "cp1", Latitude: 40.7600, Longitude: -73.9851}, 50); !errors.Is(err, ErrOutsideCheckpoint) {
		t.Fatalf("expected outside checkpoint, got %v", err)
	}
	if err := ValidatePhoto(g, "p1", Photo{CheckpointID: "cp9"}, 50); !errors.Is(err, ErrUnknownCheckpoint) {
		t.Fatalf("expected unknown checkpoint")
	}
	if err := ValidatePhoto(g, "p9", near, 50); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected unknown participant")
	}
}

func TestVisitedCheckpoints(t *testing.T) {
	g := sampleGame()
	visited, missing := VisitedCheckpoints(g, squareRoute(), 50)
	if len(visited) != 1 || visited[0] != "cp1" {
		t.Fatalf("unexpected visited: %v", visited)
	}
	if len(missing) != 1 || missing[0] != "cp2" {
		t.Fatalf("unexpected missing: %v", missing)
	}
}

func TestLeaderboard(t *testing.T) {
	g := Game{Participants: []Participant{
		{ID: "b", Name: "B", AreaKm2: 0.8, Completed: true, CompletionTimeSec: 100},
		{ID: "x", Name: "X", AreaKm2: 5, Completed: false},
		{ID: "a", Name: "A", AreaKm2: 1.2, Completed: true, CompletionTimeSec: 900},
		{ID: "c", Name: "C", AreaKm2: 0.8, Completed: true, CompletionTimeSec: 50},
	}}

	board := Leaderboard(g, 0)
	if len(board) != 3 {
		t.Fatalf("expected only completed participants, got %d", len(board))
	}
	if board[0].ParticipantID != "a" || board[0].Rank != 1 {
		t.Fatalf("expected A first, got %+v", board[0])
	}
	if board[1].ParticipantID != "c" || board[2].ParticipantID != "b" {
		t.Fatalf("expected faster completion to win the tie: %+v", board)
	}

	if top := Leaderboard(g, 2); len(top) != 2 {
		t.Fatalf("expected limit to apply")
	}
}
