package controllers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/internal/pkg/apierror"
	"github.com/mxi-labs/presale/internal/pkg/payment"
	"github.com/mxi-labs/presale/internal/pkg/statistics"
	"github.com/mxi-labs/presale/internal/pkg/usercontext"
)

// PaymentService is the part of payment.Service used by the HTTP layer
type PaymentService interface {
	Handle(ctx context.Context, cmd payment.Command) (*payment.Result, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	AuditTrail(ctx context.Context, paymentID string) ([]models.AuditLog, error)
}

// MetricsProvider serves the aggregate presale metrics
type MetricsProvider interface {
	Snapshot(ctx context.Context) (*statistics.PresaleSnapshot, error)
}

// PaymentController handles payment verification requests
type PaymentController struct {
	service  PaymentService
	metrics  MetricsProvider
	validate *validator.Validate
}

// VerificationRequest is the body of POST /payment-verification
type VerificationRequest struct {
	PaymentID     string  `json:"paymentId" validate:"required,max=100"`
	Action        string  `json:"action" validate:"required,oneof=verify confirm reject"`
	TransactionID *string `json:"transactionId" validate:"omitempty,max=200"`
}

// NewPaymentController creates a payment controller. metrics may be nil when
// the metrics endpoint is not mounted.
func NewPaymentController(service PaymentService, metrics MetricsProvider) *PaymentController {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &PaymentController{service: service, metrics: metrics, validate: v}
}

// HandlePaymentVerification dispatches verify, confirm and reject requests
func (pc *PaymentController) HandlePaymentVerification(c *fiber.Ctx) error {
	var req VerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.Send(c, payment.CodeInvalidInput, "Malformed request body")
	}
	normalizeRequest(&req)
	if err := pc.validate.Struct(&req); err != nil {
		return apierror.Send(c, payment.CodeInvalidInput, validationMessage(err))
	}
	action, ok := payment.ParseAction(req.Action)
	if !ok {
		return apierror.Send(c, payment.CodeInvalidInput, "action must be one of verify, confirm, reject")
	}

	cmd := payment.Command{
		PaymentID:     req.PaymentID,
		Action:        action,
		TransactionID: req.TransactionID,
	}
	if action != payment.ActionVerify {
		admin := usercontext.GetSubject(c)
		if admin == "" {
			admin = usercontext.UnknownSubject
		}
		cmd.AdminID = &admin
	}

	res, err := pc.service.Handle(c.UserContext(), cmd)
	if err != nil {
		if payment.CodeOf(err) == payment.CodeDatabaseError || payment.CodeOf(err) == payment.CodeTransactionFailed {
			log.Errorf("[Payment] %s %s failed: %v", action, req.PaymentID, err)
		}
		return apierror.FromError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resultBody(res))
}

// HandleGetPayment returns the current state of a payment and its audit trail
func (pc *PaymentController) HandleGetPayment(c *fiber.Ctx) error {
	p, err := pc.service.GetPayment(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		return apierror.FromError(c, err)
	}
	entries, err := pc.service.AuditTrail(c.UserContext(), p.PaymentID)
	if err != nil {
		log.Errorf("[Payment] Failed to load audit trail of %s: %v", p.PaymentID, err)
		return apierror.FromError(c, err)
	}

	trail := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		trail = append(trail, fiber.Map{
			"action":    e.Action,
			"status":    e.Status,
			"adminId":   e.AdminID,
			"details":   e.Details,
			"createdAt": e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"success":              true,
		"paymentId":            p.PaymentID,
		"status":               p.Status,
		"usdtAmount":           p.UsdtAmount.InexactFloat64(),
		"mxiAmount":            p.MxiAmount.InexactFloat64(),
		"verificationAttempts": p.VerificationAttempts,
		"expiresAt":            p.ExpiresAt.UTC().Format(time.RFC3339),
		"confirmedAt":          formatTime(p.ConfirmedAt),
		"auditTrail":           trail,
	})
}

// HandlePresaleMetrics returns the aggregate presale totals
func (pc *PaymentController) HandlePresaleMetrics(c *fiber.Ctx) error {
	if pc.metrics == nil {
		return apierror.Send(c, payment.CodeDatabaseError, "Metrics unavailable")
	}
	snap, err := pc.metrics.Snapshot(c.UserContext())
	if err != nil {
		log.Errorf("[Statistics] Failed to load presale metrics: %v", err)
		return apierror.Send(c, payment.CodeDatabaseError, "Failed to load presale metrics")
	}

	return c.JSON(fiber.Map{
		"success":                true,
		"totalTokensSold":        snap.TotalTokensSold.InexactFloat64(),
		"totalUsdtContributed":   snap.TotalUsdtContributed.InexactFloat64(),
		"totalTokensDistributed": snap.TotalTokensDistributed.InexactFloat64(),
		"updatedAt":              formatTime(snap.UpdatedAt),
	})
}

func normalizeRequest(req *VerificationRequest) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if req.TransactionID != nil {
		tx := strings.TrimSpace(*req.TransactionID)
		if tx == "" {
			req.TransactionID = nil
		} else {
			req.TransactionID = &tx
		}
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func resultBody(res *payment.Result) fiber.Map {
	body := fiber.Map{
		"success": res.Success,
		"message": res.Message,
		"status":  res.Status,
	}
	if res.NewBalance != nil {
		body["newBalance"] = res.NewBalance.InexactFloat64()
	}
	if res.YieldRate != nil {
		body["yieldRate"] = res.YieldRate.InexactFloat64()
	}
	if res.VerificationError != "" {
		body["verificationError"] = res.VerificationError
	}
	return body
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
