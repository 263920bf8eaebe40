package task

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

type API interface {
	Tasks(ctx context.Context) ([]Task, error)
	UpdateTaskCompletion(ctx context.Context, id string, completed bool) (Task, error)
}

func RegisterRoutes(r fiber.Router, api API) {
	r.Get("/", func(c *fiber.Ctx) error {
		tasks, err := api.Tasks(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tasks)
	})

	r.Patch("/:id", func(c *fiber.Ctx) error {
		var body struct {
			Completed *bool `json:"completed"`
		}
		if err := c.BodyParser(&body); err != nil || body.Completed == nil {
			return fiber.NewError(fiber.StatusBadRequest, "completed required")
		}
		t, err := api.UpdateTaskCompletion(c.Context(), c.Params("id"), *body.Completed)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(t)
	})
}
