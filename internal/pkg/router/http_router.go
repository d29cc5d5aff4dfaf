package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mxi-labs/presale/internal/pkg/middleware"
	"github.com/mxi-labs/presale/internal/pkg/ratelimit"
)

// HttpRouter serves the unversioned verification endpoint used by the
// mobile and admin clients.
type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/payment-verification", h.deps.verificationHandlers(
		ratelimit.New(h.deps.LimiterStorage),
		middleware.BearerAuthMiddleware(h.deps.AuthSecret),
	)...)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
