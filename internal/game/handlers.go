package game

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// API is the game surface the handlers drive; the run coordinator implements
// it on top of its cached collection.
type API interface {
	TeamRunGames(ctx context.Context) ([]Game, error)
	CreateTeamRunGame(ctx context.Context, input Game) (Game, error)
	JoinTeamRunGame(ctx context.Context, gameID, name string) (Game, error)
	StartTeamRunGame(ctx context.Context, gameID, requester string) (Game, error)
	SubmitGamePhoto(ctx context.Context, gameID, participantID string, photo Photo) (Photo, error)
	UpdateGameParticipant(ctx context.Context, gameID, participantID string, u ParticipantUpdate) (Game, error)
	Leaderboard(ctx context.Context, gameID string, limit int) ([]Standing, error)
}

// Finisher turns the active run into a participant's final route.
type Finisher interface {
	FinishGameRoute(ctx context.Context, gameID, participantID string) (FinishReport, error)
}

const defaultLeaderboardLimit = 3

func RegisterRoutes(r fiber.Router, api API, finisher Finisher) {
	r.Get("/", func(c *fiber.Ctx) error {
		games, err := api.TeamRunGames(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(games)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var req Game
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Title == "" || req.CreatedBy == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and created_by required")
		}
		if req.Area.RadiusM <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "game_area radius must be positive")
		}
		g, err := api.CreateTeamRunGame(c.Context(), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Post("/:id/join", func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		g, err := api.JoinTeamRunGame(c.Context(), c.Params("id"), body.Name)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(g)
	})

	r.Post("/:id/start", func(c *fiber.Ctx) error {
		var body struct {
			RequestedBy string `json:"requested_by"`
		}
		if err := c.BodyParser(&body); err != nil || body.RequestedBy == "" {
			return fiber.NewError(fiber.StatusBadRequest, "requested_by required")
		}
		g, err := api.StartTeamRunGame(c.Context(), c.Params("id"), body.RequestedBy)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(g)
	})

	r.Post("/:id/photos", func(c *fiber.Ctx) error {
		var body struct {
			ParticipantID string `json:"participant_id"`
			Photo
		}
		if err := c.BodyParser(&body); err != nil || body.ParticipantID == "" || body.CheckpointID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "participant_id and checkpoint_id required")
		}
		photo, err := api.SubmitGamePhoto(c.Context(), c.Params("id"), body.ParticipantID, body.Photo)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Put("/:id/participants/:pid", func(c *fiber.Ctx) error {
		var req ParticipantUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := api.UpdateGameParticipant(c.Context(), c.Params("id"), c.Params("pid"), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(g)
	})

	r.Get("/:id/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultLeaderboardLimit)
		standings, err := api.Leaderboard(c.Context(), c.Params("id"), limit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(standings)
	})

	r.Post("/:id/participants/:pid/finish", func(c *fiber.Ctx) error {
		if finisher == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "no run coordinator attached")
		}
		report, err := finisher.FinishGameRoute(c.Context(), c.Params("id"), c.Params("pid"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(report)
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrParticipantNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotCreator):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrParticipantFinal):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownCheckpoint), errors.Is(err, ErrOutsideCheckpoint):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
