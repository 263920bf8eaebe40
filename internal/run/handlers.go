package run

import (
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/route"

	"github.com/gofiber/fiber/v2"
)

type areaRequest struct {
	Coordinates []location.Coordinate `json:"coordinates"`
}

func RegisterRoutes(r fiber.Router, store *Store) {
	r.Post("/start", func(c *fiber.Ctx) error {
		if !store.StartRun(c.Context()) {
			return fiber.NewError(fiber.StatusConflict, "location unavailable")
		}
		return c.JSON(store.LiveStats())
	})

	r.Post("/stop", func(c *fiber.Ctx) error {
		run, ok, err := store.StopRun(c.Context())
		if !ok {
			return c.JSON(fiber.Map{"stopped": false})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(run)
	})

	r.Post("/pause", func(c *fiber.Ctx) error {
		if !store.PauseRun() {
			return fiber.NewError(fiber.StatusConflict, "no run in progress")
		}
		return c.JSON(store.LiveStats())
	})

	r.Post("/resume", func(c *fiber.Ctx) error {
		if !store.ResumeRun() {
			return fiber.NewError(fiber.StatusConflict, "no run in progress")
		}
		return c.JSON(store.LiveStats())
	})

	r.Get("/live", func(c *fiber.Ctx) error {
		resp := fiber.Map{"stats": store.LiveStats()}
		if region, ok := store.LiveRegion(); ok && store.IsRunning() {
			resp["region"] = region
		}
		return c.JSON(resp)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(store.RunHistory())
	})

	r.Post("/area", func(c *fiber.Ctx) error {
		var req areaRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		return c.JSON(fiber.Map{"area_km2": store.CalculateRouteArea(req.Coordinates)})
	})

	r.Get("/gait-tests", func(c *fiber.Ctx) error {
		return c.JSON(store.GaitTests())
	})

	r.Post("/gait-tests", func(c *fiber.Ctx) error {
		var req GaitTest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Score < 0 || req.Score > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "score must be between 0 and 100")
		}
		test, err := store.AddGaitTest(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(test)
	})

	r.Get("/:id/route", func(c *fiber.Ctx) error {
		run, ok := store.FindRun(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "run not found")
		}
		if len(run.Coordinates) < 2 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "run has no recorded route")
		}
		return c.JSON(route.Feature(run.ID, run.Coordinates))
	})
}
