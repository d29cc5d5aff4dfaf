package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusConfirming = "confirming"
	PaymentStatusConfirmed  = "confirmed"
	PaymentStatusFailed     = "failed"
	PaymentStatusExpired    = "expired"
)

// Payment is one externally funded deposit request. Amounts are quoted at
// creation time: UsdtAmount in the source asset, MxiAmount in presale tokens.
type Payment struct {
	ID                   uint            `gorm:"primaryKey" json:"-"`
	PaymentID            string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"payment_id"`
	UserID               string          `gorm:"type:char(36);not null;index" json:"user_id"`
	UsdtAmount           decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"usdt_amount"`
	MxiAmount            decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"mxi_amount"`
	PayAddress           string          `gorm:"type:varchar(191);not null" json:"pay_address"`
	Status               string          `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_status_expires,priority:1" json:"status"`
	OkxTransactionID     *string         `gorm:"type:varchar(200);default:null;index" json:"okx_transaction_id,omitempty"`
	VerificationAttempts int             `gorm:"not null;default:0" json:"verification_attempts"`
	LastVerificationAt   *time.Time      `gorm:"type:timestamp;default:null" json:"last_verification_at,omitempty"`
	ExpiresAt            time.Time       `gorm:"type:timestamp;not null;index:idx_payments_status_expires,priority:2" json:"expires_at"`
	ConfirmedAt          *time.Time      `gorm:"type:timestamp;default:null" json:"confirmed_at,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns an external payment identifier when none was given.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(p.PaymentID) == "" {
		p.PaymentID = "MXI-" + strings.ToUpper(uuid.NewString()[:13])
	}
	return nil
}

// IsTerminal reports whether the payment can no longer change state.
func (p *Payment) IsTerminal() bool {
	return IsTerminalPaymentStatus(p.Status)
}

// IsExpiredAt reports whether the payment's expiry lies before now.
func (p *Payment) IsExpiredAt(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && p.ExpiresAt.Before(now)
}

func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusExpired:
		return true
	default:
		return false
	}
}
