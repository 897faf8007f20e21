package controller

import (
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/serverutils"
	"github.com/kinhai-collab/Mira-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Connect(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service service.IOAuthService
}

func NewOAuthController(service service.IOAuthService) IOAuthController {
	return &oauthController{service: service}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /connect/google
	h := r.Group("/connect")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/:provider", c.Connect)
	h.Get("/:provider/callback", c.Callback)
}

// Connect returns the provider consent URL. The SPA opens it in a popup and
// later forwards the authorization code to Callback with its own JWT.
func (c *oauthController) Connect(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	url, err := c.service.GetConnectURL(provider)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Consent URL", map[string]string{
		"url": url,
	}))
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	provider := ctx.Params("provider")
	code := ctx.Query("code")
	if code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing code"))
	}

	account, err := c.service.HandleCallback(ctx.Context(), userId, provider, code)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Account connected", map[string]string{
		"provider": account.Provider,
		"email":    account.Email,
	}))
}
