package tracking

import (
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

// Pusher accepts samples from a device bridge.
type Pusher interface {
	Push(c location.Coordinate) int
}

// RegisterRoutes mounts the location endpoints. feed may be nil when the
// process is not fed over HTTP, in which case sample ingestion is disabled.
func RegisterRoutes(r fiber.Router, session *Session, feed Pusher) {
	r.Post("/samples", func(c *fiber.Ctx) error {
		if feed == nil {
			return fiber.NewError(fiber.StatusConflict, "location source does not accept samples")
		}
		var samples []location.Coordinate
		if err := c.BodyParser(&samples); err != nil {
			var single location.Coordinate
			if err := c.BodyParser(&single); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			samples = []location.Coordinate{single}
		}
		if len(samples) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "at least one sample required")
		}
		delivered := 0
		for _, s := range samples {
			delivered += feed.Push(s)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": len(samples), "delivered": delivered})
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		coord, ok := session.CurrentPosition(c.Context())
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, location.ErrUnavailable.Error())
		}
		return c.JSON(coord)
	})

	r.Get("/region", func(c *fiber.Ctx) error {
		region, ok := session.Region(geo.DefaultRegionPadding)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no samples recorded")
		}
		return c.JSON(region)
	})
}
