package repository

import (
	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
)

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository instance
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create appends an entry; audit rows are never updated or deleted
func (r *auditLogRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// ListByPaymentID returns the audit trail of a payment, oldest first
func (r *auditLogRepository) ListByPaymentID(paymentID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.Where("payment_id = ?", paymentID).Order("created_at ASC, id ASC").Find(&entries).Error
	return entries, err
}
