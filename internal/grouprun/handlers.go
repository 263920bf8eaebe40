package grouprun

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// API is what the handlers need; the run coordinator satisfies it so that
// writes invalidate its cached collection.
type API interface {
	GroupRuns(ctx context.Context) ([]GroupRun, error)
	CreateGroupRun(ctx context.Context, input GroupRun) (GroupRun, error)
	UpdateGroupRun(ctx context.Context, id string, patch GroupRun) (GroupRun, error)
	DeleteGroupRun(ctx context.Context, id string) error
	JoinGroupRun(ctx context.Context, id string) (GroupRun, error)
}

func RegisterRoutes(r fiber.Router, api API) {
	r.Get("/", func(c *fiber.Ctx) error {
		runs, err := api.GroupRuns(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(runs)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var req GroupRun
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Title == "" || req.Date == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and date required")
		}
		g, err := api.CreateGroupRun(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req GroupRun
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := api.UpdateGroupRun(c.Context(), c.Params("id"), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(g)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := api.DeleteGroupRun(c.Context(), c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/join", func(c *fiber.Ctx) error {
		g, err := api.JoinGroupRun(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(g)
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrFull):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
