package controller

import (
	"time"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/serverutils"
	"github.com/kinhai-collab/Mira-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	GetSummary(ctx *fiber.Ctx) error
	GetEmails(ctx *fiber.Ctx) error
	GetEvents(ctx *fiber.Ctx) error
	GetTasks(ctx *fiber.Ctx) error
	GetReminders(ctx *fiber.Ctx) error
	CreateEvent(ctx *fiber.Ctx) error
	MorningBrief(ctx *fiber.Ctx) error
}

type dashboardController struct {
	service service.IDashboardService
}

func NewDashboardController(service service.IDashboardService) IDashboardController {
	return &dashboardController{service: service}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dashboard")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/summary", c.GetSummary)
	h.Get("/emails", c.GetEmails)
	h.Get("/events", c.GetEvents)
	h.Post("/events", c.CreateEvent)
	h.Get("/tasks", c.GetTasks)
	h.Get("/reminders", c.GetReminders)
	h.Get("/brief", c.MorningBrief)
}

// GetSummary never fails: widgets whose upstream fetch degraded come back
// zeroed so the dashboard always renders.
func (c *dashboardController) GetSummary(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res := c.service.Summary(ctx.Context(), userId)
	return ctx.JSON(serverutils.SuccessResponse("Dashboard summary", res))
}

func (c *dashboardController) GetEmails(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res := c.service.EmailSummary(ctx.Context(), userId)
	return ctx.JSON(serverutils.SuccessResponse("Email summary", res))
}

func (c *dashboardController) GetEvents(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	day := time.Now()
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid date, want YYYY-MM-DD"))
		}
		day = parsed
	}

	res := c.service.Events(ctx.Context(), userId, day)
	return ctx.JSON(serverutils.SuccessResponse("Calendar events", res))
}

func (c *dashboardController) GetTasks(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res := c.service.TaskSummary(ctx.Context(), userId)
	return ctx.JSON(serverutils.SuccessResponse("Task summary", res))
}

func (c *dashboardController) GetReminders(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res := c.service.Reminders(ctx.Context(), userId)
	return ctx.JSON(serverutils.SuccessResponse("Reminders", res))
}

func (c *dashboardController) CreateEvent(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateEvent(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Event created", res))
}

func (c *dashboardController) MorningBrief(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	withAudio := ctx.QueryBool("audio", false)

	res, err := c.service.MorningBrief(ctx.Context(), userId, withAudio)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Morning brief", res))
}
