package controller

import (
	"strconv"

	"github.com/kinhai-collab/Mira-sub001/internal/pkg/serverutils"
	"github.com/kinhai-collab/Mira-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILocationController interface {
	RegisterRoutes(r fiber.Router)
	Locate(ctx *fiber.Ctx) error
	Weather(ctx *fiber.Ctx) error
}

type locationController struct {
	service service.ILocationService
}

func NewLocationController(service service.ILocationService) ILocationController {
	return &locationController{service: service}
}

func (c *locationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/location")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/locate", c.Locate)
	h.Get("/weather", c.Weather)
}

// Locate resolves coordinates to a place. Without lat/lon it falls back to
// the caller's IP, mirroring the browser geolocation-denied path.
func (c *locationController) Locate(ctx *fiber.Ctx) error {
	latStr := ctx.Query("lat", "")
	lonStr := ctx.Query("lon", "")

	if latStr == "" || lonStr == "" {
		res, err := c.service.LocateByIP(ctx.Context(), ctx.IP())
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
		}
		return ctx.JSON(serverutils.SuccessResponse("Location resolved", res))
	}

	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon must be numbers"))
	}

	res, err := c.service.ReverseGeocode(ctx.Context(), lat, lon)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Location resolved", res))
}

func (c *locationController) Weather(ctx *fiber.Ctx) error {
	lat, err1 := strconv.ParseFloat(ctx.Query("lat", ""), 64)
	lon, err2 := strconv.ParseFloat(ctx.Query("lon", ""), 64)
	if err1 != nil || err2 != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "lat and lon parameters are required"))
	}

	res, err := c.service.Weather(ctx.Context(), lat, lon)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Current weather", res))
}
