package run

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/metrics"
	"backend-campusrun/internal/remote"
	"backend-campusrun/internal/route"
	"backend-campusrun/internal/shared/geo"
	"backend-campusrun/internal/storage"
	"backend-campusrun/internal/task"
	"backend-campusrun/internal/tracking"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store coordinates the single in-progress run with the run history, the
// local snapshot store and the remote collections.
type Store struct {
	tracker Tracker
	remote  remote.Collaborator
	kv      storage.KV
	hub     Broadcaster
	opts    Options
	log     *zap.Logger
	now     func() time.Time

	groupRuns *Query[grouprun.GroupRun]
	tasks     *Query[task.Task]
	games     *Query[game.Game]

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	runs      []Run
	gaitTests []GaitTest
	stopTick  context.CancelFunc
	tickDone  chan struct{}

	liveMu sync.RWMutex
	live   LiveStats
}

// NewStore wires the coordinator. hub may be nil when nobody listens for
// live stats.
func NewStore(tracker Tracker, collaborator remote.Collaborator, kv storage.KV, hub Broadcaster, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Store{
		tracker:   tracker,
		remote:    collaborator,
		kv:        kv,
		hub:       hub,
		opts:      opts,
		log:       logger,
		now:       time.Now,
		groupRuns: NewQuery("group_runs", opts.GroupRunsStale, collaborator.FetchGroupRuns),
		tasks:     NewQuery("tasks", opts.TasksStale, collaborator.FetchTasks),
		games:     NewQuery("team_run_games", opts.GamesStale, collaborator.FetchTeamRunGames),
		runs:      []Run{},
		gaitTests: []GaitTest{},
	}
}

// Load restores the run and gait-test histories. Missing keys leave the
// histories empty.
func (s *Store) Load(ctx context.Context) error {
	var runs []Run
	if _, err := storage.GetJSON(ctx, s.kv, runsKey, &runs); err != nil {
		return fmt.Errorf("load runs: %w", err)
	}
	var tests []GaitTest
	if _, err := storage.GetJSON(ctx, s.kv, gaitTestsKey, &tests); err != nil {
		return fmt.Errorf("load gait tests: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if runs != nil {
		s.runs = runs
	}
	if tests != nil {
		s.gaitTests = tests
	}
	s.log.Info("history loaded", zap.Int("runs", len(s.runs)), zap.Int("gait_tests", len(s.gaitTests)))
	return nil
}

// StartRun begins tracking. It returns false, leaving the store idle, when
// the location capability is unavailable or denied.
func (s *Store) StartRun(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return true
	}
	if !s.tracker.Start(context.WithoutCancel(ctx), s.onSample) {
		return false
	}

	s.running = true
	s.startedAt = s.now()
	s.setLive(LiveStats{Running: true})

	tickCtx, cancel := context.WithCancel(context.Background())
	s.stopTick = cancel
	s.tickDone = make(chan struct{})
	go s.tickLoop(tickCtx, s.startedAt, s.tickDone)

	s.log.Info("run started")
	return true
}

func (s *Store) onSample(c location.Coordinate) {
	s.liveMu.Lock()
	s.live.Last = &c
	s.liveMu.Unlock()
}

func (s *Store) tickLoop(ctx context.Context, startedAt time.Time, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.LiveTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(startedAt)
		}
	}
}

func (s *Store) tick(startedAt time.Time) {
	coords := s.tracker.Coordinates()
	elapsed := math.Floor(s.now().Sub(startedAt).Seconds())
	distance := tracking.CalculateDistance(coords)

	s.liveMu.Lock()
	s.live.Distance = distance
	s.live.Pace = tracking.CalculatePace(distance, elapsed)
	s.live.Cadence = s.tracker.Policy().Cadence(coords, elapsed)
	s.live.ElapsedSec = int64(elapsed)
	s.live.Paused = s.tracker.Paused()
	stats := s.live
	s.liveMu.Unlock()

	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		s.log.Warn("encode live stats", zap.Error(err))
		return
	}
	s.hub.Broadcast(LiveTopic, payload)
}

func (s *Store) setLive(stats LiveStats) {
	s.liveMu.Lock()
	s.live = stats
	s.liveMu.Unlock()
}

// StopRun ends tracking, records the run at the head of the history and
// persists it. ok is false when no run was in progress. A persistence error
// is returned alongside the recorded run.
func (s *Store) StopRun(ctx context.Context) (Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return Run{}, false, nil
	}

	s.stopTick()
	<-s.tickDone
	s.stopTick = nil
	s.tickDone = nil

	coords := s.tracker.Stop()
	end := s.now()
	duration := math.Floor(end.Sub(s.startedAt).Seconds())
	distance := tracking.CalculateDistance(coords)
	gain, _ := tracking.ElevationChange(coords)
	policy := s.tracker.Policy()

	r := Run{
		ID:           strconv.FormatInt(end.UnixMilli(), 10),
		Date:         end.Format(time.DateOnly),
		DurationSec:  int64(duration),
		DistanceKm:   round(distance, 2),
		PaceMinPerKm: round(tracking.CalculatePace(distance, duration), 1),
		Calories:     policy.Calories(distance, gain),
		Type:         TypeSolo,
		Route:        gpsRouteName,
		Coordinates:  coords,
		Cadence:      policy.Cadence(coords, duration),
		AvgSpeedKmh:  round(tracking.AverageSpeed(distance, duration), 1),
	}

	s.runs = append([]Run{r}, s.runs...)
	s.running = false
	s.startedAt = time.Time{}
	s.setLive(LiveStats{})
	metrics.RunsCompleted.Inc()
	s.log.Info("run stopped",
		zap.String("id", r.ID),
		zap.Float64("distance_km", r.DistanceKm),
		zap.Int64("duration_sec", r.DurationSec),
	)

	if err := storage.SetJSON(ctx, s.kv, runsKey, s.runs); err != nil {
		s.log.Error("persist runs", zap.Error(err))
		return r, true, fmt.Errorf("persist runs: %w", err)
	}
	return r, true, nil
}

// PauseRun freezes distance accumulation while keeping the subscription.
func (s *Store) PauseRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.tracker.Pause() {
		return false
	}
	s.liveMu.Lock()
	s.live.Paused = true
	s.liveMu.Unlock()
	return true
}

func (s *Store) ResumeRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.tracker.Resume() {
		return false
	}
	s.liveMu.Lock()
	s.live.Paused = false
	s.liveMu.Unlock()
	return true
}

// Close stops a run still in progress so its subscription is released and
// the run is kept.
func (s *Store) Close(ctx context.Context) error {
	_, _, err := s.StopRun(ctx)
	return err
}

func (s *Store) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Store) LiveStats() LiveStats {
	s.liveMu.RLock()
	defer s.liveMu.RUnlock()
	return s.live
}

// LiveRegion covers the samples of the run in progress.
func (s *Store) LiveRegion() (geo.Region, bool) {
	return s.tracker.Region(s.opts.RegionPadding)
}

func (s *Store) RunHistory() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Run{}, s.runs...)
}

func (s *Store) FindRun(id string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r, true
		}
	}
	return Run{}, false
}

// AddGaitTest prepends a gait test to the history and persists it.
func (s *Store) AddGaitTest(ctx context.Context, t GaitTest) (GaitTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t.ID = strconv.FormatInt(now.UnixMilli(), 10)
	if t.Date == "" {
		t.Date = now.Format(time.DateOnly)
	}
	if t.Improvements == nil {
		t.Improvements = []string{}
	}
	s.gaitTests = append([]GaitTest{t}, s.gaitTests...)
	if err := storage.SetJSON(ctx, s.kv, gaitTestsKey, s.gaitTests); err != nil {
		return t, fmt.Errorf("persist gait tests: %w", err)
	}
	return t, nil
}

func (s *Store) GaitTests() []GaitTest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GaitTest{}, s.gaitTests...)
}

// CalculateRouteArea is the enclosed area of a route in km².
func (s *Store) CalculateRouteArea(coords []location.Coordinate) float64 {
	return geo.PolygonAreaKm2(location.Points(coords))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// mutate issues a remote write and invalidates the affected collection only
// when the write succeeded.
func mutate[T any](s *Store, op string, invalidate func(), call func() (T, error)) (T, error) {
	v, err := call()
	metrics.ObserveRemote(op, err)
	if err != nil {
		s.log.Warn("remote write failed", zap.String("operation", op), zap.Error(err))
		return v, err
	}
	invalidate()
	return v, nil
}

func (s *Store) GroupRuns(ctx context.Context) ([]grouprun.GroupRun, error) {
	return s.groupRuns.Get(ctx)
}

func (s *Store) CreateGroupRun(ctx context.Context, input grouprun.GroupRun) (grouprun.GroupRun, error) {
	return mutate(s, "create_group_run", s.groupRuns.Invalidate, func() (grouprun.GroupRun, error) {
		return s.remote.CreateGroupRun(ctx, input)
	})
}

func (s *Store) UpdateGroupRun(ctx context.Context, id string, patch grouprun.GroupRun) (grouprun.GroupRun, error) {
	return mutate(s, "update_group_run", s.groupRuns.Invalidate, func() (grouprun.GroupRun, error) {
		return s.remote.UpdateGroupRun(ctx, id, patch)
	})
}

func (s *Store) DeleteGroupRun(ctx context.Context, id string) error {
	_, err := mutate(s, "delete_group_run", s.groupRuns.Invalidate, func() (struct{}, error) {
		return struct{}{}, s.remote.DeleteGroupRun(ctx, id)
	})
	return err
}

func (s *Store) JoinGroupRun(ctx context.Context, id string) (grouprun.GroupRun, error) {
	return mutate(s, "join_group_run", s.groupRuns.Invalidate, func() (grouprun.GroupRun, error) {
		return s.remote.JoinGroupRun(ctx, id)
	})
}

func (s *Store) Tasks(ctx context.Context) ([]task.Task, error) {
	return s.tasks.Get(ctx)
}

func (s *Store) UpdateTaskCompletion(ctx context.Context, id string, completed bool) (task.Task, error) {
	return mutate(s, "update_task", s.tasks.Invalidate, func() (task.Task, error) {
		return s.remote.UpdateTaskCompletion(ctx, id, completed)
	})
}

func (s *Store) CompleteTask(ctx context.Context, id string) (task.Task, error) {
	return s.UpdateTaskCompletion(ctx, id, true)
}

func (s *Store) TeamRunGames(ctx context.Context) ([]game.Game, error) {
	return s.games.Get(ctx)
}

func (s *Store) CreateTeamRunGame(ctx context.Context, input game.Game) (game.Game, error) {
	return mutate(s, "create_game", s.games.Invalidate, func() (game.Game, error) {
		return s.remote.CreateTeamRunGame(ctx, input)
	})
}

func (s *Store) JoinTeamRunGame(ctx context.Context, gameID, name string) (game.Game, error) {
	return mutate(s, "join_game", s.games.Invalidate, func() (game.Game, error) {
		return s.remote.JoinTeamRunGame(ctx, gameID, name)
	})
}

func (s *Store) StartTeamRunGame(ctx context.Context, gameID, requester string) (game.Game, error) {
	return mutate(s, "start_game", s.games.Invalidate, func() (game.Game, error) {
		return s.remote.StartTeamRunGame(ctx, gameID, requester)
	})
}

func (s *Store) SubmitGamePhoto(ctx context.Context, gameID, participantID string, photo game.Photo) (game.Photo, error) {
	return mutate(s, "submit_game_photo", s.games.Invalidate, func() (game.Photo, error) {
		return s.remote.SubmitGamePhoto(ctx, gameID, participantID, photo)
	})
}

func (s *Store) UpdateGameParticipant(ctx context.Context, gameID, participantID string, u game.ParticipantUpdate) (game.Game, error) {
	return mutate(s, "update_game_participant", s.games.Invalidate, func() (game.Game, error) {
		return s.remote.UpdateGameParticipant(ctx, gameID, participantID, u)
	})
}

func (s *Store) findGame(ctx context.Context, gameID string) (game.Game, error) {
	games, err := s.games.Get(ctx)
	if err != nil {
		return game.Game{}, err
	}
	for _, g := range games {
		if g.ID == gameID {
			return g, nil
		}
	}
	return game.Game{}, game.ErrNotFound
}

func (s *Store) Leaderboard(ctx context.Context, gameID string, limit int) ([]game.Standing, error) {
	g, err := s.findGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Leaderboard(g, limit), nil
}

// FinishGameRoute stops the run in progress and submits its route as the
// participant's final, completed route.
func (s *Store) FinishGameRoute(ctx context.Context, gameID, participantID string) (game.FinishReport, error) {
	g, err := s.findGame(ctx, gameID)
	if err != nil {
		return game.FinishReport{}, err
	}
	if err := game.CanFinish(g, participantID); err != nil {
		return game.FinishReport{}, err
	}

	r, ok, err := s.StopRun(ctx)
	if !ok {
		return game.FinishReport{}, fmt.Errorf("%w: no run in progress", game.ErrInvalidTransition)
	}
	if err != nil {
		s.log.Warn("finishing game with unsaved run", zap.Error(err))
	}

	visited, missing := game.VisitedCheckpoints(g, r.Coordinates, s.opts.CheckpointRadiusM)
	updated, err := s.UpdateGameParticipant(ctx, gameID, participantID, game.ParticipantUpdate{
		Route:             r.Coordinates,
		CompletionTimeSec: float64(r.DurationSec),
		Completed:         true,
	})
	if err != nil {
		return game.FinishReport{}, err
	}

	report := game.FinishReport{
		Game:               updated,
		ClosedLoop:         route.IsClosedLoop(r.Coordinates, route.LoopClosureKm),
		VisitedCheckpoints: visited,
		MissingCheckpoints: missing,
	}
	for _, p := range updated.Participants {
		if p.ID == participantID {
			report.Participant = p
		}
	}
	return report, nil
}

func (s *Store) RefreshGroupRuns() { s.groupRuns.Invalidate() }

func (s *Store) RefreshTasks() { s.tasks.Invalidate() }

func (s *Store) RefreshTeamRunGames() { s.games.Invalidate() }

// RefreshAll re-fetches every remote collection concurrently.
func (s *Store) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.groupRuns.Refresh(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.tasks.Refresh(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.games.Refresh(ctx)
		return err
	})
	return g.Wait()
}

// StartBackgroundRefresh re-fetches each collection on its own interval until
// ctx is cancelled.
func (s *Store) StartBackgroundRefresh(ctx context.Context) {
	go refreshEvery(ctx, s.opts.GroupRunsRefresh, "group_runs", s.groupRuns.Refresh, s.log)
	go refreshEvery(ctx, s.opts.TasksRefresh, "tasks", s.tasks.Refresh, s.log)
	go refreshEvery(ctx, s.opts.GamesRefresh, "team_run_games", s.games.Refresh, s.log)
}

func refreshEvery[T any](ctx context.Context, interval time.Duration, name string, refresh func(context.Context) ([]T, error), log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := refresh(ctx); err != nil {
				log.Warn("background refresh failed", zap.String("collection", name), zap.Error(err))
			}
		}
	}
}
