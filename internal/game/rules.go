package game

import (
	"sort"
	"time"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"
	"backend-campusrun/internal/tracking"
)

func (g *Game) participant(id string) *Participant {
	for i := range g.Participants {
		if g.Participants[i].ID == id {
			return &g.Participants[i]
		}
	}
	return nil
}

func (g Game) checkpoint(id string) (Checkpoint, bool) {
	for _, cp := range g.Checkpoints {
		if cp.ID == id {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// Start moves a pending game to active. Only the creator may do so.
func Start(g *Game, requester string, now time.Time) error {
	if requester != g.CreatedBy {
		return ErrNotCreator
	}
	if g.Status != Pending {
		return ErrInvalidTransition
	}
	ms := now.UnixMilli()
	g.Status = Active
	g.StartTime = &ms
	return nil
}

// Join appends a fresh participant. Completed games are closed.
func Join(g *Game, id, name string) (Participant, error) {
	if g.Status == Completed {
		return Participant{}, ErrInvalidTransition
	}
	p := Participant{
		ID:     id,
		Name:   name,
		Route:  []location.Coordinate{},
		Photos: []Photo{},
	}
	g.Participants = append(g.Participants, p)
	return p, nil
}

// CanFinish reports whether participantID may still submit a completed route.
func CanFinish(g Game, participantID string) error {
	p := g.participant(participantID)
	if p == nil {
		return ErrParticipantNotFound
	}
	if p.Completed {
		return ErrParticipantFinal
	}
	if g.Status != Active {
		return ErrInvalidTransition
	}
	return nil
}

// ApplyUpdate records progress for one participant. Once a participant has
// completed, their results are final. Completion is only accepted while the
// game is active, and completes the game once nobody is left running.
func ApplyUpdate(g *Game, participantID string, u ParticipantUpdate, now time.Time) (Participant, error) {
	if u.Completed {
		if err := CanFinish(*g, participantID); err != nil {
			return Participant{}, err
		}
	}
	p := g.participant(participantID)
	if p == nil {
		return Participant{}, ErrParticipantNotFound
	}
	if p.Completed {
		return Participant{}, ErrParticipantFinal
	}

	if u.Route != nil {
		p.Route = u.Route
	}
	if u.Completed {
		p.AreaKm2 = geo.PolygonAreaKm2(location.Points(p.Route))
		p.DistanceKm = tracking.CalculateDistance(p.Route)
		p.CompletionTimeSec = u.CompletionTimeSec
		p.Completed = true
	}
	out := *p

	if u.Completed && allCompleted(*g) {
		ms := now.UnixMilli()
		g.Status = Completed
		g.EndTime = &ms
	}
	return out, nil
}

func allCompleted(g Game) bool {
	if len(g.Participants) == 0 {
		return false
	}
	for _, p := range g.Participants {
		if !p.Completed {
			return false
		}
	}
	return true
}

// ValidatePhoto checks that a proof photo belongs to a known checkpoint of an
// active game and was taken within radiusM of it.
func ValidatePhoto(g Game, participantID string, photo Photo, radiusM float64) error {
	if g.Status != Active {
		return ErrInvalidTransition
	}
	if g.participant(participantID) == nil {
		return ErrParticipantNotFound
	}
	cp, ok := g.checkpoint(photo.CheckpointID)
	if !ok {
		return ErrUnknownCheckpoint
	}
	if !geo.WithinRadius(cp.Point(), geo.Point{Lat: photo.Latitude, Lng: photo.Longitude}, radiusM) {
		return ErrOutsideCheckpoint
	}
	return nil
}

// VisitedCheckpoints splits the game's checkpoints by whether any sample of
// route came within radiusM of them.
func VisitedCheckpoints(g Game, route []location.Coordinate, radiusM float64) (visited, missing []string) {
	visited, missing = []string{}, []string{}
	for _, cp := range g.Checkpoints {
		hit := false
		for _, c := range route {
			if geo.WithinRadius(cp.Point(), c.Point(), radiusM) {
				hit = true
				break
			}
		}
		if hit {
			visited = append(visited, cp.ID)
		} else {
			missing = append(missing, cp.ID)
		}
	}
	return visited, missing
}

// Leaderboard ranks completed participants by enclosed area, larger first,
// with the faster completion winning a tie. limit <= 0 returns everyone.
func Leaderboard(g Game, limit int) []Standing {
	done := []Participant{}
	for _, p := range g.Participants {
		if p.Completed {
			done = append(done, p)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		if done[i].AreaKm2 != done[j].AreaKm2 {
			return done[i].AreaKm2 > done[j].AreaKm2
		}
		return done[i].CompletionTimeSec < done[j].CompletionTimeSec
	})
	if limit > 0 && len(done) > limit {
		done = done[:limit]
	}

	out := make([]Standing, len(done))
	for i, p := range done {
		out[i] = Standing{
			Rank:              i + 1,
			ParticipantID:     p.ID,
			Name:              p.Name,
			AreaKm2:           p.AreaKm2,
			DistanceKm:        p.DistanceKm,
			CompletionTimeSec: p.CompletionTimeSec,
		}
	}
	return out
}
