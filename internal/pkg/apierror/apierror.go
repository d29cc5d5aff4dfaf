// Package apierror renders payment error codes as JSON error envelopes.
package apierror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/mxi-labs/presale/internal/pkg/payment"
)

// Status maps an error code to its HTTP status.
func Status(code payment.ErrorCode) int {
	switch code {
	case payment.CodeInvalidInput, payment.CodeInvalidAction:
		return fiber.StatusBadRequest
	case payment.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case payment.CodeNotFound:
		return fiber.StatusNotFound
	case payment.CodeAlreadyProcessed:
		return fiber.StatusConflict
	case payment.CodeExpired:
		return fiber.StatusGone
	case payment.CodeVerificationFailed, payment.CodeNetworkError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Title is the short error label of the envelope.
func Title(code payment.ErrorCode) string {
	switch code {
	case payment.CodeInvalidInput:
		return "Invalid input"
	case payment.CodeInvalidAction:
		return "Invalid action"
	case payment.CodeUnauthorized:
		return "Unauthorized"
	case payment.CodeNotFound:
		return "Payment not found"
	case payment.CodeAlreadyProcessed:
		return "Payment already processed"
	case payment.CodeExpired:
		return "Payment expired"
	case payment.CodeVerificationFailed:
		return "Verification failed"
	case payment.CodeNetworkError:
		return "Network error"
	case payment.CodeTransactionFailed:
		return "Transaction failed"
	default:
		return "Database error"
	}
}

// Send writes the error envelope for code. retryable tells the client
// whether repeating the same request later may succeed.
func Send(c *fiber.Ctx, code payment.ErrorCode, message string) error {
	body := fiber.Map{
		"success":   false,
		"error":     Title(code),
		"code":      code,
		"message":   message,
		"retryable": code.Retryable(),
	}
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
		body["requestId"] = rid
	}
	return c.Status(Status(code)).JSON(body)
}

// FromError writes the envelope for err. Payment errors keep their code and
// message; anything else is reported without internal detail.
func FromError(c *fiber.Ctx, err error) error {
	var pe *payment.Error
	if errors.As(err, &pe) {
		return Send(c, pe.Code, pe.Message)
	}
	return Send(c, payment.CodeDatabaseError, "An unexpected error occurred")
}
