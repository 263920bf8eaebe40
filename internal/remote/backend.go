package remote

import (
	"context"

	"backend-campusrun/internal/db"
	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/task"
)

// Backend serves the collaborator contract from PostgreSQL.
type Backend struct {
	groupRuns *grouprun.Service
	tasks     *task.Service
	games     *game.Service
}

func NewBackend(q db.Querier, checkpointRadiusM float64) *Backend {
	return &Backend{
		groupRuns: grouprun.NewService(q),
		tasks:     task.NewService(q),
		games:     game.NewService(q, checkpointRadiusM),
	}
}

func (b *Backend) FetchGroupRuns(ctx context.Context) ([]grouprun.GroupRun, error) {
	return b.groupRuns.FetchGroupRuns(ctx)
}

func (b *Backend) CreateGroupRun(ctx context.Context, input grouprun.GroupRun) (grouprun.GroupRun, error) {
	return b.groupRuns.CreateGroupRun(ctx, input)
}

func (b *Backend) UpdateGroupRun(ctx context.Context, id string, patch grouprun.GroupRun) (grouprun.GroupRun, error) {
	return b.groupRuns.UpdateGroupRun(ctx, id, patch)
}

func (b *Backend) DeleteGroupRun(ctx context.Context, id string) error {
	return b.groupRuns.DeleteGroupRun(ctx, id)
}

func (b *Backend) JoinGroupRun(ctx context.Context, id string) (grouprun.GroupRun, error) {
	return b.groupRuns.JoinGroupRun(ctx, id)
}

func (b *Backend) FetchTasks(ctx context.Context) ([]task.Task, error) {
	return b.tasks.FetchTasks(ctx)
}

func (b *Backend) UpdateTaskCompletion(ctx context.Context, id string, completed bool) (task.Task, error) {
	return b.tasks.UpdateTaskCompletion(ctx, id, completed)
}

func (b *Backend) FetchTeamRunGames(ctx context.Context) ([]game.Game, error) {
	return b.games.FetchTeamRunGames(ctx)
}

func (b *Backend) CreateTeamRunGame(ctx context.Context, input game.Game) (game.Game, error) {
	return b.games.CreateTeamRunGame(ctx, input)
}

func (b *Backend) JoinTeamRunGame(ctx context.Context, gameID, name string) (game.Game, error) {
	return b.games.JoinTeamRunGame(ctx, gameID, name)
}

func (b *Backend) StartTeamRunGame(ctx context.Context, gameID, requester string) (game.Game, error) {
	return b.games.StartTeamRunGame(ctx, gameID, requester)
}

func (b *Backend) SubmitGamePhoto(ctx context.Context, gameID, participantID string, photo game.Photo) (game.Photo, error) {
	return b.games.SubmitGamePhoto(ctx, gameID, participantID, photo)
}

func (b *Backend) UpdateGameParticipant(ctx context.Context, gameID, participantID string, u game.ParticipantUpdate) (game.Game, error) {
	return b.games.UpdateGameParticipant(ctx, gameID, participantID, u)
}

var _ Collaborator = (*Backend)(nil)
