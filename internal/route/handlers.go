package route

import (
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type analyzeRequest struct {
	Coordinates    []location.Coordinate `json:"coordinates"`
	MaxPoints      int                   `json:"max_points"`
	WaypointEveryK float64               `json:"waypoint_every_km"`
}

type analyzeResponse struct {
	Analysis   Analysis              `json:"analysis"`
	ClosedLoop bool                  `json:"closed_loop"`
	AreaKm2    float64               `json:"area_km2"`
	Simplified []location.Coordinate `json:"simplified,omitempty"`
	Waypoints  []location.Coordinate `json:"waypoints,omitempty"`
}

func RegisterRoutes(r fiber.Router) {
	r.Post("/analyze", func(c *fiber.Ctx) error {
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		analysis, ok := Analyze(req.Coordinates)
		if !ok {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "at least two coordinates required")
		}
		resp := analyzeResponse{
			Analysis:   analysis,
			ClosedLoop: IsClosedLoop(req.Coordinates, LoopClosureKm),
			AreaKm2:    geo.PolygonAreaKm2(location.Points(req.Coordinates)),
		}
		if req.MaxPoints > 0 {
			resp.Simplified = Simplify(req.Coordinates, req.MaxPoints)
		}
		if req.WaypointEveryK > 0 {
			resp.Waypoints = Waypoints(req.Coordinates, req.WaypointEveryK)
		}
		return c.JSON(resp)
	})
}
