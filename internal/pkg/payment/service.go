// Package payment drives a payment through verification and confirmation.
// The conditional status transition on the payment row is the only
// serialization point; a payment is credited at most once.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/app/repository"
	"github.com/mxi-labs/presale/internal/pkg/commission"
	"github.com/mxi-labs/presale/internal/pkg/okx"
)

// Verifier checks an external deposit against the expected amount and
// destination.
type Verifier interface {
	VerifyDeposit(ctx context.Context, txID string, expectedAmount decimal.Decimal, expectedDestination string) okx.VerificationResult
}

// AuditArchiver mirrors audit entries to secondary storage.
type AuditArchiver interface {
	Archive(ctx context.Context, entry *models.AuditLog) error
}

type Service struct {
	store       Store
	verifier    Verifier
	commissions *commission.Engine
	archiver    AuditArchiver

	// onMetricsUpdated runs after aggregate metrics were incremented.
	onMetricsUpdated func(ctx context.Context)
	now              func() time.Time
}

func NewService(store Store, verifier Verifier) *Service {
	return &Service{
		store:       store,
		verifier:    verifier,
		commissions: commission.NewEngine(),
		now:         time.Now,
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, verifier Verifier) *Service {
	return NewService(NewGormStore(db), verifier)
}

func (s *Service) SetArchiver(a AuditArchiver) {
	s.archiver = a
}

func (s *Service) SetMetricsHook(fn func(ctx context.Context)) {
	s.onMetricsUpdated = fn
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Handle applies cmd to the payment it names.
func (s *Service) Handle(ctx context.Context, cmd Command) (*Result, error) {
	p, err := s.GetPayment(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	if p.IsTerminal() {
		switch p.Status {
		case models.PaymentStatusConfirmed:
			return s.alreadyConfirmed(ctx, p), nil
		case models.PaymentStatusExpired:
			return nil, NewError(CodeExpired, "Payment has expired", nil)
		default:
			return nil, NewError(CodeAlreadyProcessed, "Payment was already rejected", nil)
		}
	}

	if p.IsExpiredAt(s.now()) {
		return s.expire(ctx, p)
	}

	switch cmd.Action {
	case ActionVerify:
		return s.verify(ctx, p, cmd.TransactionID)
	case ActionConfirm:
		return s.confirm(ctx, p, cmd.AdminID)
	case ActionReject:
		return s.reject(ctx, p, cmd.AdminID)
	default:
		return nil, NewError(CodeInvalidAction, fmt.Sprintf("Unsupported action %q", cmd.Action), nil)
	}
}

// GetPayment loads a payment by its external identifier.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, NewError(CodeInvalidInput, "paymentId is required", nil)
	}

	p, err := s.store.GetPayment(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(CodeNotFound, "Payment not found", err)
	}
	if err != nil {
		return nil, NewError(CodeDatabaseError, "Failed to load payment", err)
	}
	return p, nil
}

// AuditTrail returns the recorded decisions for a payment, oldest first.
func (s *Service) AuditTrail(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	entries, err := s.store.ListAuditLogs(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		return nil, NewError(CodeDatabaseError, "Failed to load audit trail", err)
	}
	return entries, nil
}

// ExpireOverdue moves every open payment past its expiry to expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.store.ExpireOverdue(ctx, s.now())
}

func (s *Service) alreadyConfirmed(ctx context.Context, p *models.Payment) *Result {
	res := &Result{
		Success: true,
		Message: "Payment already confirmed",
		Status:  p.Status,
		Payment: p,
	}
	user, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		log.Warnf("[Payment] Could not load balance of %s for confirmed payment %s: %v", p.UserID, p.PaymentID, err)
		return res
	}
	balance := user.MxiBalance
	rate := user.YieldRatePerMinute
	res.NewBalance = &balance
	res.YieldRate = &rate
	return res
}

func (s *Service) expire(ctx context.Context, p *models.Payment) (*Result, error) {
	err := s.store.TransitionPayment(ctx, p.PaymentID, p.Status, repository.PaymentUpdate{Status: models.PaymentStatusExpired})
	if errors.Is(err, ErrConcurrentUpdate) {
		// Someone else moved it first; report what the row says now.
		current, gerr := s.store.GetPayment(ctx, p.PaymentID)
		if gerr == nil && current.Status == models.PaymentStatusConfirmed {
			return s.alreadyConfirmed(ctx, current), nil
		}
	} else if err != nil {
		log.Errorf("[Payment] Failed to mark %s as expired: %v", p.PaymentID, err)
	} else {
		log.Infof("[Payment] Payment %s expired at %s", p.PaymentID, p.ExpiresAt.Format(time.RFC3339))
		p.Status = models.PaymentStatusExpired
	}
	return nil, NewError(CodeExpired, "Payment has expired", nil)
}

func (s *Service) verify(ctx context.Context, p *models.Payment, transactionID *string) (*Result, error) {
	if transactionID == nil || strings.TrimSpace(*transactionID) == "" {
		return nil, NewError(CodeInvalidInput, "transactionId is required for verify", nil)
	}
	txID := strings.TrimSpace(*transactionID)

	now := s.now()
	update := repository.PaymentUpdate{
		Status:             models.PaymentStatusConfirming,
		OkxTransactionID:   &txID,
		IncrementAttempts:  true,
		LastVerificationAt: &now,
	}
	if err := s.store.TransitionPayment(ctx, p.PaymentID, p.Status, update); err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, NewError(CodeTransactionFailed, "Payment already processed by another request", err)
		}
		return nil, NewError(CodeDatabaseError, "Failed to record verification attempt", err)
	}
	p.Status = models.PaymentStatusConfirming
	p.OkxTransactionID = &txID
	p.VerificationAttempts++
	p.LastVerificationAt = &now

	outcome := s.verifier.VerifyDeposit(ctx, txID, p.UsdtAmount, p.PayAddress)
	if outcome.Verified {
		log.Infof("[Payment] Deposit %s verified for %s, confirming", txID, p.PaymentID)
		return s.confirm(ctx, p, nil)
	}

	log.Warnf("[Payment] Deposit %s for %s not verified: %s", txID, p.PaymentID, outcome.Error)
	details := map[string]interface{}{
		"transactionId":        txID,
		"error":                outcome.Error,
		"verificationAttempts": p.VerificationAttempts,
	}
	if outcome.Amount != nil {
		details["reportedAmount"] = outcome.Amount.String()
	}
	s.audit(ctx, models.AuditActionVerify, p, nil, models.AuditStatusFailed, details)

	return &Result{
		Success:           true,
		Message:           "Payment submitted for manual review",
		Status:            models.PaymentStatusConfirming,
		Payment:           p,
		VerificationError: outcome.Error,
	}, nil
}

// confirmProgress tracks which writes of a confirmation reached the store
// so a non-atomic store can be compensated.
type confirmProgress struct {
	statusWritten  bool
	balanceWritten bool
	priorBalance   repository.BalanceUpdate
}

func (s *Service) confirm(ctx context.Context, p *models.Payment, adminID *string) (*Result, error) {
	prevStatus := p.Status
	confirmedAt := s.now()

	var (
		progress   confirmProgress
		newBalance decimal.Decimal
		yieldRate  decimal.Decimal
		created    []models.Commission
	)
	err := s.store.InTransaction(ctx, func(tx Store) error {
		update := repository.PaymentUpdate{Status: models.PaymentStatusConfirmed, ConfirmedAt: &confirmedAt}
		if err := tx.TransitionPayment(ctx, p.PaymentID, prevStatus, update); err != nil {
			return err
		}
		progress.statusWritten = true

		user, err := tx.LockUser(ctx, p.UserID)
		if err != nil {
			return fmt.Errorf("load user %s: %w", p.UserID, err)
		}
		progress.priorBalance = balanceOf(user)

		newBalance = user.MxiBalance.Add(p.MxiAmount)
		contributed := user.UsdtContributed.Add(p.UsdtAmount)
		yieldRate = YieldRateFor(contributed)
		if err := tx.UpdateUserBalance(ctx, p.UserID, repository.BalanceUpdate{
			MxiBalance:           newBalance,
			UsdtContributed:      contributed,
			MxiPurchasedDirectly: user.MxiPurchasedDirectly.Add(p.MxiAmount),
			IsActiveContributor:  true,
			YieldRatePerMinute:   yieldRate,
			LastYieldUpdate:      &confirmedAt,
		}); err != nil {
			return fmt.Errorf("update balance of %s: %w", p.UserID, err)
		}
		progress.balanceWritten = true

		created, err = s.commissions.FanOut(ctx, tx, p.UserID, p.UsdtAmount)
		if err != nil {
			return fmt.Errorf("commission fan-out: %w", err)
		}
		return nil
	})
	if err != nil {
		if !s.store.Atomic() {
			s.compensate(ctx, p, prevStatus, progress)
		}
		p.Status = prevStatus
		p.ConfirmedAt = nil

		log.Errorf("[Payment] Confirmation of %s failed: %v", p.PaymentID, err)
		s.audit(ctx, models.AuditActionConfirm, p, adminID, models.AuditStatusFailed, map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, NewError(CodeTransactionFailed, "Payment already processed by another request", err)
		}
		return nil, NewError(CodeTransactionFailed, "Payment confirmation failed", err)
	}

	p.Status = models.PaymentStatusConfirmed
	p.ConfirmedAt = &confirmedAt

	s.incrementMetrics(ctx, p)

	s.audit(ctx, models.AuditActionConfirm, p, adminID, models.AuditStatusSuccess, map[string]interface{}{
		"usdtAmount":  p.UsdtAmount.String(),
		"mxiAmount":   p.MxiAmount.String(),
		"newBalance":  newBalance.String(),
		"yieldRate":   yieldRate.String(),
		"commissions": len(created),
	})
	log.Infof("[Payment] Payment %s confirmed, user %s credited %s MXI", p.PaymentID, p.UserID, p.MxiAmount.String())

	return &Result{
		Success:    true,
		Message:    "Payment confirmed",
		Status:     models.PaymentStatusConfirmed,
		Payment:    p,
		NewBalance: &newBalance,
		YieldRate:  &yieldRate,
	}, nil
}

// compensate undoes the writes of a failed confirmation on a store without
// atomic transactions. Failures are logged; the original error stands.
func (s *Service) compensate(ctx context.Context, p *models.Payment, prevStatus string, progress confirmProgress) {
	if progress.balanceWritten {
		if err := s.store.UpdateUserBalance(ctx, p.UserID, progress.priorBalance); err != nil {
			log.Errorf("[Payment] Failed to restore balance of %s after failed confirmation of %s: %v", p.UserID, p.PaymentID, err)
		}
	}
	if progress.statusWritten {
		revert := repository.PaymentUpdate{Status: prevStatus, ClearConfirmedAt: true}
		if err := s.store.TransitionPayment(ctx, p.PaymentID, models.PaymentStatusConfirmed, revert); err != nil {
			log.Errorf("[Payment] Failed to revert %s to %s: %v", p.PaymentID, prevStatus, err)
		}
	}
}

func (s *Service) incrementMetrics(ctx context.Context, p *models.Payment) {
	delta := repository.MetricsDelta{
		TokensSold:        p.MxiAmount,
		UsdtContributed:   p.UsdtAmount,
		TokensDistributed: p.MxiAmount,
	}
	if err := s.store.IncrementMetrics(ctx, delta); err != nil {
		log.Errorf("[Payment] Failed to update presale metrics for %s: %v", p.PaymentID, err)
		return
	}
	if s.onMetricsUpdated != nil {
		s.onMetricsUpdated(ctx)
	}
}

func (s *Service) reject(ctx context.Context, p *models.Payment, adminID *string) (*Result, error) {
	prevStatus := p.Status
	err := s.store.TransitionPayment(ctx, p.PaymentID, prevStatus, repository.PaymentUpdate{Status: models.PaymentStatusFailed})
	if err != nil {
		s.audit(ctx, models.AuditActionReject, p, adminID, models.AuditStatusFailed, map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, NewError(CodeTransactionFailed, "Payment already processed by another request", err)
		}
		return nil, NewError(CodeDatabaseError, "Failed to reject payment", err)
	}
	p.Status = models.PaymentStatusFailed

	s.audit(ctx, models.AuditActionReject, p, adminID, models.AuditStatusSuccess, map[string]interface{}{
		"previousStatus": prevStatus,
	})
	log.Infof("[Payment] Payment %s rejected", p.PaymentID)

	return &Result{
		Success: true,
		Message: "Payment rejected",
		Status:  models.PaymentStatusFailed,
		Payment: p,
	}, nil
}

// audit appends an audit entry. It never fails the calling operation.
func (s *Service) audit(ctx context.Context, action string, p *models.Payment, adminID *string, status string, details map[string]interface{}) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	entry := &models.AuditLog{
		Action:    action,
		PaymentID: p.PaymentID,
		UserID:    p.UserID,
		AdminID:   adminID,
		Status:    status,
		Details:   datatypes.JSON(raw),
		CreatedAt: s.now(),
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		log.Errorf("[Payment] Failed to write %s audit entry for %s: %v", action, p.PaymentID, err)
	}
	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, entry); err != nil {
			log.Errorf("[Payment] Failed to archive %s audit entry for %s: %v", action, p.PaymentID, err)
		}
	}
}

func balanceOf(u *models.User) repository.BalanceUpdate {
	return repository.BalanceUpdate{
		MxiBalance:           u.MxiBalance,
		UsdtContributed:      u.UsdtContributed,
		MxiPurchasedDirectly: u.MxiPurchasedDirectly,
		IsActiveContributor:  u.IsActiveContributor,
		YieldRatePerMinute:   u.YieldRatePerMinute,
		LastYieldUpdate:      u.LastYieldUpdate,
	}
}
