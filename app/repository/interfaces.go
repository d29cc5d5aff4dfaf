package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
)

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	GetByPaymentID(paymentID string) (*models.Payment, error)
	// UpdateStatusIfCurrent applies updates only while the row still has
	// expectedStatus. It reports whether a row was changed.
	UpdateStatusIfCurrent(paymentID, expectedStatus string, updates PaymentUpdate) (bool, error)
	ExpireOverdue(now time.Time) (int64, error)
}

// UserRepository defines the interface for user balance operations
type UserRepository interface {
	GetByID(id string) (*models.User, error)
	// GetByIDForUpdate reads the user row and locks it until the surrounding
	// transaction ends.
	GetByIDForUpdate(id string) (*models.User, error)
	GetReferrerID(id string) (*string, error)
	UpdateBalance(id string, update BalanceUpdate) error
}

// CommissionRepository defines the interface for referral commission rows
type CommissionRepository interface {
	Create(commission *models.Commission) error
}

// PresaleMetricsRepository defines the interface for the global metrics row
type PresaleMetricsRepository interface {
	Get() (*models.PresaleMetrics, error)
	Increment(delta MetricsDelta) error
}

// AuditLogRepository defines the interface for the append-only audit trail
type AuditLogRepository interface {
	Create(entry *models.AuditLog) error
	ListByPaymentID(paymentID string) ([]models.AuditLog, error)
}

// PaymentUpdate lists the columns a status transition may touch. Nil
// pointers leave the column unchanged.
type PaymentUpdate struct {
	Status             string
	ConfirmedAt        *time.Time
	ClearConfirmedAt   bool
	OkxTransactionID   *string
	IncrementAttempts  bool
	LastVerificationAt *time.Time
}

// BalanceUpdate carries the absolute balance values written on confirmation.
type BalanceUpdate struct {
	MxiBalance           decimal.Decimal
	UsdtContributed      decimal.Decimal
	MxiPurchasedDirectly decimal.Decimal
	IsActiveContributor  bool
	YieldRatePerMinute   decimal.Decimal
	LastYieldUpdate      *time.Time
}

// MetricsDelta is added to the global presale metrics row.
type MetricsDelta struct {
	TokensSold        decimal.Decimal
	UsdtContributed   decimal.Decimal
	TokensDistributed decimal.Decimal
}

// Repositories struct holds all repository instances
type Repositories struct {
	Payment        PaymentRepository
	User           UserRepository
	Commission     CommissionRepository
	PresaleMetrics PresaleMetricsRepository
	AuditLog       AuditLogRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:        NewPaymentRepository(db),
		User:           NewUserRepository(db),
		Commission:     NewCommissionRepository(db),
		PresaleMetrics: NewPresaleMetricsRepository(db),
		AuditLog:       NewAuditLogRepository(db),
	}
}
