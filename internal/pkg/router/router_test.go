package router

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxi-labs/presale/app/controllers"
	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/internal/pkg/payment"
)

type okService struct{}

func (okService) AuditTrail(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	return nil, nil
}

func (okService) Handle(ctx context.Context, cmd payment.Command) (*payment.Result, error) {
	return &payment.Result{Success: true, Status: models.PaymentStatusConfirmed}, nil
}

func (okService) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return nil, payment.NewError(payment.CodeNotFound, "Payment not found", nil)
}

func newTestApp() *fiber.App {
	app := fiber.New()
	InstallRouter(app, Dependencies{Payments: controllers.NewPaymentController(okService{}, nil)})
	return app
}

func TestVerificationRoutes(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/payment-verification", "/api/v1/payment-verification"} {
		req := httptest.NewRequest("POST", path, strings.NewReader(`{"paymentId":"MXI-1","action":"confirm"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)

		req = httptest.NewRequest("POST", path, strings.NewReader(`{"paymentId":"MXI-1","action":"confirm"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestPaymentStatusRouteRequiresAuth(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/payments/MXI-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/v1/payments/MXI-1", nil)
	req.Header.Set("Authorization", "Bearer token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestVerificationRoutesRunRequestSchemaAfterAuth(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Dependencies{
		Payments: controllers.NewPaymentController(okService{}, nil),
		RequestSchema: func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusTeapot)
		},
	})

	for _, path := range []string{"/payment-verification", "/api/v1/payment-verification"} {
		req := httptest.NewRequest("POST", path, strings.NewReader(`{"paymentId":"MXI-1","action":"confirm"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)

		req = httptest.NewRequest("POST", path, strings.NewReader(`{"paymentId":"MXI-1","action":"confirm"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer token")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTeapot, resp.StatusCode, path)
	}
}
