package payment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/app/repository"
	"github.com/mxi-labs/presale/internal/pkg/commission"
)

// Store is the ledger as seen by the service.
type Store interface {
	commission.Store

	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	// TransitionPayment applies update only while the payment still has
	// fromStatus, returning ErrConcurrentUpdate otherwise.
	TransitionPayment(ctx context.Context, paymentID, fromStatus string, update repository.PaymentUpdate) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	GetUser(ctx context.Context, userID string) (*models.User, error)
	// LockUser reads the user for a balance update inside InTransaction.
	LockUser(ctx context.Context, userID string) (*models.User, error)
	UpdateUserBalance(ctx context.Context, userID string, update repository.BalanceUpdate) error

	IncrementMetrics(ctx context.Context, delta repository.MetricsDelta) error
	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, paymentID string) ([]models.AuditLog, error)

	// InTransaction runs fn against a store bound to one unit of work.
	InTransaction(ctx context.Context, fn func(tx Store) error) error
	// Atomic reports whether InTransaction rolls back every write of fn on
	// error. Non-atomic stores need explicit compensation.
	Atomic() bool
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the GORM repositories.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) repos(ctx context.Context) *repository.Repositories {
	return repository.NewRepositories(s.db.WithContext(ctx))
}

func (s *gormStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.repos(ctx).Payment.GetByPaymentID(paymentID)
}

func (s *gormStore) TransitionPayment(ctx context.Context, paymentID, fromStatus string, update repository.PaymentUpdate) error {
	ok, err := s.repos(ctx).Payment.UpdateStatusIfCurrent(paymentID, fromStatus, update)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrentUpdate
	}
	return nil
}

func (s *gormStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.repos(ctx).Payment.ExpireOverdue(now)
}

func (s *gormStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repos(ctx).User.GetByID(userID)
}

func (s *gormStore) LockUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repos(ctx).User.GetByIDForUpdate(userID)
}

func (s *gormStore) UpdateUserBalance(ctx context.Context, userID string, update repository.BalanceUpdate) error {
	return s.repos(ctx).User.UpdateBalance(userID, update)
}

func (s *gormStore) GetReferrerID(ctx context.Context, userID string) (*string, error) {
	return s.repos(ctx).User.GetReferrerID(userID)
}

func (s *gormStore) CreateCommission(ctx context.Context, c *models.Commission) error {
	return s.repos(ctx).Commission.Create(c)
}

func (s *gormStore) IncrementMetrics(ctx context.Context, delta repository.MetricsDelta) error {
	return s.repos(ctx).PresaleMetrics.Increment(delta)
}

func (s *gormStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.repos(ctx).AuditLog.Create(entry)
}

func (s *gormStore) ListAuditLogs(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	return s.repos(ctx).AuditLog.ListByPaymentID(paymentID)
}

func (s *gormStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Atomic() bool {
	return true
}
