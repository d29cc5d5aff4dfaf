package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mxi-labs/presale/internal/pkg/middleware"
	"github.com/mxi-labs/presale/internal/pkg/ratelimit"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", ratelimit.New(h.deps.LimiterStorage))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Get("/presale/metrics", h.deps.Payments.HandlePresaleMetrics)

	auth := middleware.BearerAuthMiddleware(h.deps.AuthSecret)
	v1.Post("/payment-verification", h.deps.verificationHandlers(auth)...)
	v1.Get("/payments/:paymentId", auth, h.deps.Payments.HandleGetPayment)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
