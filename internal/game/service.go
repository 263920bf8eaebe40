package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-campusrun/internal/db"
	"backend-campusrun/internal/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db                db.Querier
	checkpointRadiusM float64
	now               func() time.Time
}

func NewService(db db.Querier, checkpointRadiusM float64) *Service {
	if checkpointRadiusM <= 0 {
		checkpointRadiusM = DefaultCheckpointRadiusM
	}
	return &Service{db: db, checkpointRadiusM: checkpointRadiusM, now: time.Now}
}

func (s *Service) FetchTeamRunGames(ctx context.Context) ([]Game, error) {
	return s.loadGames(ctx, "", nil)
}

func (s *Service) GetGame(ctx context.Context, id string) (Game, error) {
	games, err := s.loadGames(ctx, " WHERE id=$1", []any{id})
	if err != nil {
		return Game{}, err
	}
	if len(games) == 0 {
		return Game{}, ErrNotFound
	}
	return games[0], nil
}

func (s *Service) loadGames(ctx context.Context, where string, args []any) ([]Game, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, description, date, time, created_by, status, center_lat, center_lng, radius_m, start_time, end_time
		FROM team_run_games`+where+`
		ORDER BY date, time
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []Game{}
	ids := []string{}
	index := map[string]int{}
	for rows.Next() {
		var g Game
		var status string
		var start, end *time.Time
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Date, &g.Time, &g.CreatedBy, &status,
			&g.Area.Center.Lat, &g.Area.Center.Lng, &g.Area.RadiusM, &start, &end); err != nil {
			return nil, err
		}
		g.Status = Status(status)
		g.StartTime = millis(start)
		g.EndTime = millis(end)
		g.Checkpoints = []Checkpoint{}
		g.Participants = []Participant{}
		index[g.ID] = len(games)
		ids = append(ids, g.ID)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return games, nil
	}

	if err := s.loadCheckpoints(ctx, ids, games, index); err != nil {
		return nil, err
	}
	if err := s.loadParticipants(ctx, ids, games, index); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Service) loadCheckpoints(ctx context.Context, ids []string, games []Game, index map[string]int) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, name, description, lat, lng
		FROM game_checkpoints
		WHERE game_id = ANY($1)
		ORDER BY game_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cp Checkpoint
		var gameID string
		if err := rows.Scan(&cp.ID, &gameID, &cp.Name, &cp.Description, &cp.Latitude, &cp.Longitude); err != nil {
			return err
		}
		if i, ok := index[gameID]; ok {
			games[i].Checkpoints = append(games[i].Checkpoints, cp)
		}
	}
	return rows.Err()
}

func (s *Service) loadParticipants(ctx context.Context, ids []string, games []Game, index map[string]int) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, name, route, area_km2, distance_km, completion_time_sec, completed
		FROM game_participants
		WHERE game_id = ANY($1)
		ORDER BY joined_at
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	type slot struct{ game, participant int }
	owners := map[string]slot{}
	for rows.Next() {
		var p Participant
		var gameID string
		var route []byte
		if err := rows.Scan(&p.ID, &gameID, &p.Name, &route, &p.AreaKm2, &p.DistanceKm, &p.CompletionTimeSec, &p.Completed); err != nil {
			return err
		}
		p.Route = []location.Coordinate{}
		if len(route) > 0 {
			if err := json.Unmarshal(route, &p.Route); err != nil {
				return fmt.Errorf("decode route of participant %s: %w", p.ID, err)
			}
		}
		p.Photos = []Photo{}
		i, ok := index[gameID]
		if !ok {
			continue
		}
		owners[p.ID] = slot{game: i, participant: len(games[i].Participants)}
		games[i].Participants = append(games[i].Participants, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	photoRows, err := s.db.Query(ctx, `
		SELECT id, participant_id, checkpoint_id, uri, lat, lng, taken_at
		FROM game_photos
		WHERE game_id = ANY($1)
		ORDER BY taken_at
	`, ids)
	if err != nil {
		return err
	}
	defer photoRows.Close()

	for photoRows.Next() {
		var ph Photo
		var participantID string
		var takenAt time.Time
		if err := photoRows.Scan(&ph.ID, &participantID, &ph.CheckpointID, &ph.URI, &ph.Latitude, &ph.Longitude, &takenAt); err != nil {
			return err
		}
		ph.Timestamp = takenAt.UnixMilli()
		if o, ok := owners[participantID]; ok {
			p := &games[o.game].Participants[o.participant]
			p.Photos = append(p.Photos, ph)
		}
	}
	return photoRows.Err()
}

// CreateTeamRunGame stores a pending game with its checkpoints and no
// participants.
func (s *Service) CreateTeamRunGame(ctx context.Context, input Game) (Game, error) {
	input.ID = uuid.NewString()
	input.Status = Pending
	input.Participants = []Participant{}
	input.StartTime, input.EndTime = nil, nil
	if input.Checkpoints == nil {
		input.Checkpoints = []Checkpoint{}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Game{}, fmt.Errorf("begin create game: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO team_run_games (id, title, description, date, time, created_by, status, center_lat, center_lng, radius_m)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, input.ID, input.Title, input.Description, input.Date, input.Time, input.CreatedBy, string(input.Status),
		input.Area.Center.Lat, input.Area.Center.Lng, input.Area.RadiusM)
	if err != nil {
		return Game{}, rollback(ctx, tx, err)
	}

	for i := range input.Checkpoints {
		cp := &input.Checkpoints[i]
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO game_checkpoints (id, game_id, name, description, lat, lng, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, cp.ID, input.ID, cp.Name, cp.Description, cp.Latitude, cp.Longitude, i)
		if err != nil {
			return Game{}, rollback(ctx, tx, fmt.Errorf("insert checkpoint %s: %w", cp.Name, err))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Game{}, fmt.Errorf("commit create game: %w", err)
	}
	return input, nil
}

func rollback(ctx context.Context, tx pgx.Tx, err error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
	}
	return err
}

func (s *Service) JoinTeamRunGame(ctx context.Context, gameID, name string) (Game, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, err
	}
	p, err := Join(&g, uuid.NewString(), name)
	if err != nil {
		return Game{}, err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO game_participants (id, game_id, name, route)
		VALUES ($1,$2,$3,$4)
	`, p.ID, gameID, p.Name, []byte("[]"))
	if err != nil {
		return Game{}, err
	}
	return g, nil
}

func (s *Service) StartTeamRunGame(ctx context.Context, gameID, requester string) (Game, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, err
	}
	if err := Start(&g, requester, s.now()); err != nil {
		return Game{}, err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE team_run_games SET status=$2, start_time=$3 WHERE id=$1
	`, g.ID, string(g.Status), time.UnixMilli(*g.StartTime))
	if err != nil {
		return Game{}, err
	}
	return g, nil
}

func (s *Service) SubmitGamePhoto(ctx context.Context, gameID, participantID string, photo Photo) (Photo, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return Photo{}, err
	}
	if err := ValidatePhoto(g, participantID, photo, s.checkpointRadiusM); err != nil {
		return Photo{}, err
	}
	photo.ID = uuid.NewString()
	if photo.Timestamp == 0 {
		photo.Timestamp = s.now().UnixMilli()
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO game_photos (id, game_id, participant_id, checkpoint_id, uri, lat, lng, taken_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, photo.ID, gameID, participantID, photo.CheckpointID, photo.URI, photo.Latitude, photo.Longitude, time.UnixMilli(photo.Timestamp))
	if err != nil {
		return Photo{}, err
	}
	return photo, nil
}

// UpdateGameParticipant applies u under the game rules. The write only
// touches a participant row that is not completed yet, so two concurrent
// finishes cannot both land.
func (s *Service) UpdateGameParticipant(ctx context.Context, gameID, participantID string, u ParticipantUpdate) (Game, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, err
	}
	p, err := ApplyUpdate(&g, participantID, u, s.now())
	if err != nil {
		return Game{}, err
	}
	route, err := json.Marshal(p.Route)
	if err != nil {
		return Game{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Game{}, fmt.Errorf("begin participant update: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE game_participants
		SET route=$3, area_km2=$4, distance_km=$5, completion_time_sec=$6, completed=$7
		WHERE game_id=$1 AND id=$2 AND completed = false
	`, gameID, participantID, route, p.AreaKm2, p.DistanceKm, p.CompletionTimeSec, p.Completed)
	if err != nil {
		return Game{}, rollback(ctx, tx, err)
	}
	if tag.RowsAffected() == 0 {
		return Game{}, rollback(ctx, tx, ErrParticipantFinal)
	}
	if g.Status == Completed {
		_, err = tx.Exec(ctx, `
			UPDATE team_run_games SET status=$2, end_time=$3 WHERE id=$1
		`, g.ID, string(g.Status), time.UnixMilli(*g.EndTime))
		if err != nil {
			return Game{}, rollback(ctx, tx, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Game{}, fmt.Errorf("commit participant update: %w", err)
	}
	return g, nil
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
