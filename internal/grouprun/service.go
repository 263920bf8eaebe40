package grouprun

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

const selectGroupRun = `
	SELECT id, title, date, time, distance_km, pace, participants, max_participants, location, organizer, difficulty
	FROM group_runs`

func scanGroupRun(row pgx.Row) (GroupRun, error) {
	var g GroupRun
	err := row.Scan(&g.ID, &g.Title, &g.Date, &g.Time, &g.DistanceKm, &g.Pace, &g.Participants, &g.MaxParticipants, &g.Location, &g.Organizer, &g.Difficulty)
	if errors.Is(err, pgx.ErrNoRows) {
		return GroupRun{}, ErrNotFound
	}
	return g, err
}

func (s *Service) FetchGroupRuns(ctx context.Context) ([]GroupRun, error) {
	rows, err := s.db.Query(ctx, selectGroupRun+` ORDER BY date, time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []GroupRun{}
	for rows.Next() {
		g, err := scanGroupRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, g)
	}
	return runs, rows.Err()
}

func (s *Service) GetGroupRun(ctx context.Context, id string) (GroupRun, error) {
	return scanGroupRun(s.db.QueryRow(ctx, selectGroupRun+` WHERE id=$1`, id))
}

// CreateGroupRun stores a new run with its organizer as the first participant.
func (s *Service) CreateGroupRun(ctx context.Context, input GroupRun) (GroupRun, error) {
	input = NewGroupRun(uuid.NewString(), input)
	_, err := s.db.Exec(ctx, `
		INSERT INTO group_runs (id, title, date, time, distance_km, pace, participants, max_participants, location, organizer, difficulty)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, input.ID, input.Title, input.Date, input.Time, input.DistanceKm, input.Pace, input.Participants, input.MaxParticipants, input.Location, input.Organizer, input.Difficulty)
	if err != nil {
		return GroupRun{}, err
	}
	return input, nil
}

func (s *Service) UpdateGroupRun(ctx context.Context, id string, patch GroupRun) (GroupRun, error) {
	g, err := s.GetGroupRun(ctx, id)
	if err != nil {
		return GroupRun{}, err
	}
	if patch.Title != "" {
		g.Title = patch.Title
	}
	if patch.Date != "" {
		g.Date = patch.Date
	}
	if patch.Time != "" {
		g.Time = patch.Time
	}
	if patch.DistanceKm > 0 {
		g.DistanceKm = patch.DistanceKm
	}
	if patch.Pace != "" {
		g.Pace = patch.Pace
	}
	if patch.MaxParticipants > 0 {
		g.MaxParticipants = patch.MaxParticipants
	}
	if patch.Location != "" {
		g.Location = patch.Location
	}
	if patch.Difficulty != "" {
		g.Difficulty = patch.Difficulty
	}

	_, err = s.db.Exec(ctx, `
		UPDATE group_runs
		SET title=$2, date=$3, time=$4, distance_km=$5, pace=$6, max_participants=$7, location=$8, difficulty=$9
		WHERE id=$1
	`, g.ID, g.Title, g.Date, g.Time, g.DistanceKm, g.Pace, g.MaxParticipants, g.Location, g.Difficulty)
	if err != nil {
		return GroupRun{}, err
	}
	return g, nil
}

func (s *Service) DeleteGroupRun(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM group_runs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// JoinGroupRun adds one participant. The capacity check is part of the
// update so concurrent joins cannot overfill the run.
func (s *Service) JoinGroupRun(ctx context.Context, id string) (GroupRun, error) {
	g, err := scanGroupRun(s.db.QueryRow(ctx, `
		UPDATE group_runs
		SET participants = participants + 1
		WHERE id=$1 AND (max_participants = 0 OR participants < max_participants)
		RETURNING id, title, date, time, distance_km, pace, participants, max_participants, location, organizer, difficulty
	`, id))
	if !errors.Is(err, ErrNotFound) {
		return g, err
	}
	// distinguish a missing run from a full one
	if _, getErr := s.GetGroupRun(ctx, id); getErr != nil {
		return GroupRun{}, getErr
	}
	return GroupRun{}, ErrFull
}
