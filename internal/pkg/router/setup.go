package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mxi-labs/presale/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the handlers and settings shared by all routers
type Dependencies struct {
	Payments       *controllers.PaymentController
	AuthSecret     string
	LimiterStorage fiber.Storage

	// RequestSchema validates verification requests against the OpenAPI
	// document. Skipped when nil.
	RequestSchema fiber.Handler
}

// verificationHandlers chains the given middleware, the optional schema check
// and the verification controller.
func (d Dependencies) verificationHandlers(middleware ...fiber.Handler) []fiber.Handler {
	handlers := append([]fiber.Handler{}, middleware...)
	if d.RequestSchema != nil {
		handlers = append(handlers, d.RequestSchema)
	}
	return append(handlers, d.Payments.HandlePaymentVerification)
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
