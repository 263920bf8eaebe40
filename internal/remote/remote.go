package remote

import (
	"context"

	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/task"
)

// Collaborator is the remote data contract: eventually-consistent lists plus
// CRUD for group runs, tasks and team games.
type Collaborator interface {
	FetchGroupRuns(ctx context.Context) ([]grouprun.GroupRun, error)
	CreateGroupRun(ctx context.Context, input grouprun.GroupRun) (grouprun.GroupRun, error)
	UpdateGroupRun(ctx context.Context, id string, patch grouprun.GroupRun) (grouprun.GroupRun, error)
	DeleteGroupRun(ctx context.Context, id string) error
	JoinGroupRun(ctx context.Context, id string) (grouprun.GroupRun, error)

	FetchTasks(ctx context.Context) ([]task.Task, error)
	UpdateTaskCompletion(ctx context.Context, id string, completed bool) (task.Task, error)

	FetchTeamRunGames(ctx context.Context) ([]game.Game, error)
	CreateTeamRunGame(ctx context.Context, input game.Game) (game.Game, error)
	JoinTeamRunGame(ctx context.Context, gameID, name string) (game.Game, error)
	StartTeamRunGame(ctx context.Context, gameID, requester string) (game.Game, error)
	SubmitGamePhoto(ctx context.Context, gameID, participantID string, photo game.Photo) (game.Photo, error)
	UpdateGameParticipant(ctx context.Context, gameID, participantID string, u game.ParticipantUpdate) (game.Game, error)
}
