package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditActionVerify  = "verify"
	AuditActionConfirm = "confirm"
	AuditActionReject  = "reject"

	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// AuditLog is an append-only record of a payment decision.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Action    string         `gorm:"type:varchar(32);not null;index" json:"action"`
	PaymentID string         `gorm:"type:varchar(100);not null;index" json:"payment_id"`
	UserID    string         `gorm:"type:char(36);default:null;index" json:"user_id"`
	AdminID   *string        `gorm:"type:varchar(191);default:null" json:"admin_id,omitempty"`
	Status    string         `gorm:"type:varchar(16);not null;index" json:"status"`
	Details   datatypes.JSON `gorm:"type:json" json:"details"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
