package game

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

// memoryAPI applies the game rules to an in-process game.
type memoryAPI struct {
	game Game
}

func (m *memoryAPI) TeamRunGames(context.Context) ([]Game, error) {
	return []Game{m.game}, nil
}

func (m *memoryAPI) CreateTeamRunGame(_ context.Context, g Game) (Game, error) {
	g.ID = "new"
	g.Status = Pending
	return g, nil
}

func (m *memoryAPI) lookup(id string) (*Game, error) {
	if id != m.game.ID {
		return nil, ErrNotFound
	}
	return &m.game, nil
}

func (m *memoryAPI) JoinTeamRunGame(_ context.Context, id, name string) (Game, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Game{}, err
	}
	_, err = Join(g, "p-"+name, name)
	return *g, err
}

func (m *memoryAPI) StartTeamRunGame(_ context.Context, id, requester string) (Game, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Game{}, err
	}
	return *g, Start(g, requester, time.Now())
}

func (m *memoryAPI) SubmitGamePhoto(_ context.Context, id, pid string, photo Photo) (Photo, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Photo{}, err
	}
	if err := ValidatePhoto(*g, pid, photo, DefaultCheckpointRadiusM); err != nil {
		return Photo{}, err
	}
	photo.ID = "ph"
	return photo, nil
}

func (m *memoryAPI) UpdateGameParticipant(_ context.Context, id, pid string, u ParticipantUpdate) (Game, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Game{}, err
	}
	_, err = ApplyUpdate(g, pid, u, time.Now())
	return *g, err
}

func (m *memoryAPI) Leaderboard(_ context.Context, id string, limit int) ([]Standing, error) {
	g, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return Leaderboard(*g, limit), nil
}

func do(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestGameHandlersLifecycle(t *testing.T) {
	api := &memoryAPI{game: sampleGame()}
	app := fiber.New()
	RegisterRoutes(app.Group("/games"), api, nil)

	if resp := do(t, app, http.MethodGet, "/games/", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}

	create := Game{Title: "New", CreatedBy: "alex", Area: Area{RadiusM: 500}}
	if resp := do(t, app, http.MethodPost, "/games/", create); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", resp.StatusCode)
	}

	if resp := do(t, app, http.MethodPost, "/games/g1/join", map[string]string{"name": "C"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("join status %d", resp.StatusCode)
	}

	if resp := do(t, app, http.MethodPost, "/games/g1/start", map[string]string{"requested_by": "sam"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodPost, "/games/g1/start", map[string]string{"requested_by": "alex"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodPost, "/games/g1/start", map[string]string{"requested_by": "alex"}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict on restart, got %d", resp.StatusCode)
	}

	photo := map[string]any{"participant_id": "p1", "checkpoint_id": "cp1", "uri": "file://x.jpg", "latitude": 40.7589, "longitude": -73.9851}
	if resp := do(t, app, http.MethodPost, "/games/g1/photos", photo); resp.StatusCode != http.StatusCreated {
		t.Fatalf("photo status %d", resp.StatusCode)
	}
	photo["latitude"] = 40.80
	if resp := do(t, app, http.MethodPost, "/games/g1/photos", photo); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected unprocessable photo, got %d", resp.StatusCode)
	}

	update := ParticipantUpdate{Route: squareRoute(), CompletionTimeSec: 600, Completed: true}
	if resp := do(t, app, http.MethodPut, "/games/g1/participants/p1", update); resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodPut, "/games/g1/participants/p1", update); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict on final participant, got %d", resp.StatusCode)
	}

	resp := do(t, app, http.MethodGet, "/games/g1/leaderboard", nil)
	var board []Standing
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil || len(board) != 1 || board[0].ParticipantID != "p1" {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	if resp := do(t, app, http.MethodGet, "/games/zzz/leaderboard", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodPost, "/games/g1/participants/p2/finish", nil); resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected not implemented without finisher, got %d", resp.StatusCode)
	}
}

func TestGameHandlersBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/games"), &memoryAPI{game: sampleGame()}, nil)

	if resp := do(t, app, http.MethodPost, "/games/", Game{Title: "x"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing creator")
	}
	if resp := do(t, app, http.MethodPost, "/games/", Game{Title: "x", CreatedBy: "a"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing radius")
	}
	if resp := do(t, app, http.MethodPost, "/games/g1/join", map[string]string{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing name")
	}
	if resp := do(t, app, http.MethodPost, "/games/g1/photos", map[string]string{"participant_id": "p1"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing checkpoint")
	}
}
