package controller

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/serverutils"
	"github.com/kinhai-collab/Mira-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IVoiceController interface {
	RegisterRoutes(r fiber.Router)
	CompleteTurn(ctx *fiber.Ctx) error
	Speak(ctx *fiber.Ctx) error
}

type voiceController struct {
	service service.IVoiceService
}

func NewVoiceController(service service.IVoiceService) IVoiceController {
	return &voiceController{service: service}
}

func (c *voiceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/voice")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/turn", c.CompleteTurn)
	h.Post("/speak", c.Speak)
}

// CompleteTurn accepts a multipart form with the recorded audio under
// "audio" and an optional "history" field holding prior turns as JSON.
func (c *voiceController) CompleteTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	fileHeader, err := ctx.FormFile("audio")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Audio file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Cannot read audio file"))
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Cannot read audio file"))
	}

	var history []entity.ConversationTurn
	if raw := ctx.FormValue("history"); raw != "" {
		var turns []dto.ConversationTurnDTO
		if err := json.Unmarshal([]byte(raw), &turns); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Malformed history"))
		}
		for _, t := range turns {
			history = append(history, entity.ConversationTurn{Role: t.Role, Content: t.Content})
		}
	}

	res, err := c.service.CompleteTurn(ctx.Context(), userId, audio, history)
	if err != nil {
		if errors.Is(err, service.ErrNoAudio) {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Voice turn completed", res))
}

// Speak synthesizes arbitrary text. Used by the UI to replay a reply.
func (c *voiceController) Speak(ctx *fiber.Ctx) error {
	type Request struct {
		Text string `json:"text" validate:"required,min=1"`
	}
	var req Request
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	audio, mime := c.service.Speak(ctx.Context(), req.Text)
	if audio == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, "Speech synthesis unavailable"))
	}

	ctx.Set("Content-Type", mime)
	return ctx.Send(audio)
}
