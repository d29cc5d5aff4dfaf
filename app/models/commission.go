package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CommissionStatusPending   = "pending"
	CommissionStatusAvailable = "available"
	CommissionStatusPaid      = "paid"
)

// Commission is a referral reward owed to UserID because FromUserID paid.
// Rows are created as pending; approval and payout happen elsewhere.
type Commission struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     string          `gorm:"type:char(36);not null;index" json:"user_id"`
	FromUserID string          `gorm:"type:char(36);not null;index" json:"from_user_id"`
	Level      int             `gorm:"not null" json:"level"`
	Amount     decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	Percentage decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"percentage"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
