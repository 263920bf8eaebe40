package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Memory is an in-process collaborator used when no database is configured.
// It applies the same game rules as the PostgreSQL backend. Reads return
// deep copies so callers cannot mutate the stored state.
type Memory struct {
	mu                sync.Mutex
	groupRuns         map[string]grouprun.GroupRun
	tasks             map[string]task.Task
	games             map[string]game.Game
	checkpointRadiusM float64
	now               func() time.Time
	log               *zap.Logger
}

func NewMemory(checkpointRadiusM float64, logger *zap.Logger) *Memory {
	if checkpointRadiusM <= 0 {
		checkpointRadiusM = game.DefaultCheckpointRadiusM
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		groupRuns:         map[string]grouprun.GroupRun{},
		tasks:             map[string]task.Task{},
		games:             map[string]game.Game{},
		checkpointRadiusM: checkpointRadiusM,
		now:               time.Now,
		log:               logger,
	}
}

// Seed loads initial collections, replacing entities with the same id.
// Entities without an id get a fresh one.
func (m *Memory) Seed(runs []grouprun.GroupRun, tasks []task.Task, games []game.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range runs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.groupRuns[r.ID] = r
	}
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		m.tasks[t.ID] = t
	}
	for _, g := range games {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		m.games[g.ID] = cloneGame(g)
	}
	m.log.Debug("collections seeded", zap.Int("group_runs", len(runs)), zap.Int("tasks", len(tasks)), zap.Int("games", len(games)))
}

func (m *Memory) FetchGroupRuns(context.Context) ([]grouprun.GroupRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]grouprun.GroupRun, 0, len(m.groupRuns))
	for _, r := range m.groupRuns {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CreateGroupRun(_ context.Context, input grouprun.GroupRun) (grouprun.GroupRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	input = grouprun.NewGroupRun(uuid.NewString(), input)
	m.groupRuns[input.ID] = input
	m.log.Debug("group run created", zap.String("id", input.ID))
	return input, nil
}

func (m *Memory) UpdateGroupRun(_ context.Context, id string, patch grouprun.GroupRun) (grouprun.GroupRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.groupRuns[id]
	if !ok {
		return grouprun.GroupRun{}, grouprun.ErrNotFound
	}
	if patch.Title != "" {
		r.Title = patch.Title
	}
	if patch.Date != "" {
		r.Date = patch.Date
	}
	if patch.Time != "" {
		r.Time = patch.Time
	}
	if patch.DistanceKm > 0 {
		r.DistanceKm = patch.DistanceKm
	}
	if patch.Pace != "" {
		r.Pace = patch.Pace
	}
	if patch.MaxParticipants > 0 {
		r.MaxParticipants = patch.MaxParticipants
	}
	if patch.Location != "" {
		r.Location = patch.Location
	}
	if patch.Difficulty != "" {
		r.Difficulty = patch.Difficulty
	}
	m.groupRuns[id] = r
	return r, nil
}

func (m *Memory) DeleteGroupRun(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groupRuns[id]; !ok {
		return grouprun.ErrNotFound
	}
	delete(m.groupRuns, id)
	return nil
}

func (m *Memory) JoinGroupRun(_ context.Context, id string) (grouprun.GroupRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.groupRuns[id]
	if !ok {
		return grouprun.GroupRun{}, grouprun.ErrNotFound
	}
	if r.Full() {
		return grouprun.GroupRun{}, grouprun.ErrFull
	}
	r.Participants++
	m.groupRuns[id] = r
	return r, nil
}

func (m *Memory) FetchTasks(context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateTaskCompletion(_ context.Context, id string, completed bool) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	t.Completed = completed
	m.tasks[id] = t
	return t, nil
}

func (m *Memory) FetchTeamRunGames(context.Context) ([]game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, cloneGame(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CreateTeamRunGame(_ context.Context, input game.Game) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	input.ID = uuid.NewString()
	input.Status = game.Pending
	input.Participants = []game.Participant{}
	input.StartTime, input.EndTime = nil, nil
	if input.Checkpoints == nil {
		input.Checkpoints = []game.Checkpoint{}
	}
	for i := range input.Checkpoints {
		if input.Checkpoints[i].ID == "" {
			input.Checkpoints[i].ID = uuid.NewString()
		}
	}
	m.games[input.ID] = cloneGame(input)
	return cloneGame(input), nil
}

// mutateGame runs fn on a working copy and stores it only when fn succeeds.
func (m *Memory) mutateGame(id string, fn func(g *game.Game) error) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.games[id]
	if !ok {
		return game.Game{}, game.ErrNotFound
	}
	g := cloneGame(stored)
	if err := fn(&g); err != nil {
		return game.Game{}, err
	}
	m.games[id] = g
	return cloneGame(g), nil
}

func (m *Memory) JoinTeamRunGame(_ context.Context, gameID, name string) (game.Game, error) {
	return m.mutateGame(gameID, func(g *game.Game) error {
		_, err := game.Join(g, uuid.NewString(), name)
		return err
	})
}

func (m *Memory) StartTeamRunGame(_ context.Context, gameID, requester string) (game.Game, error) {
	return m.mutateGame(gameID, func(g *game.Game) error {
		return game.Start(g, requester, m.now())
	})
}

func (m *Memory) SubmitGamePhoto(_ context.Context, gameID, participantID string, photo game.Photo) (game.Photo, error) {
	_, err := m.mutateGame(gameID, func(g *game.Game) error {
		if err := game.ValidatePhoto(*g, participantID, photo, m.checkpointRadiusM); err != nil {
			return err
		}
		photo.ID = uuid.NewString()
		if photo.Timestamp == 0 {
			photo.Timestamp = m.now().UnixMilli()
		}
		for i := range g.Participants {
			if g.Participants[i].ID == participantID {
				g.Participants[i].Photos = append(g.Participants[i].Photos, photo)
			}
		}
		return nil
	})
	if err != nil {
		return game.Photo{}, err
	}
	return photo, nil
}

func (m *Memory) UpdateGameParticipant(_ context.Context, gameID, participantID string, u game.ParticipantUpdate) (game.Game, error) {
	return m.mutateGame(gameID, func(g *game.Game) error {
		_, err := game.ApplyUpdate(g, participantID, u, m.now())
		return err
	})
}

func cloneGame(g game.Game) game.Game {
	out := g
	out.Checkpoints = append([]game.Checkpoint{}, g.Checkpoints...)
	out.Participants = make([]game.Participant, len(g.Participants))
	for i, p := range g.Participants {
		p.Route = append(p.Route[:0:0], p.Route...)
		p.Photos = append(p.Photos[:0:0], p.Photos...)
		out.Participants[i] = p
	}
	if g.StartTime != nil {
		v := *g.StartTime
		out.StartTime = &v
	}
	if g.EndTime != nil {
		v := *g.EndTime
		out.EndTime = &v
	}
	return out
}

var _ Collaborator = (*Memory)(nil)
