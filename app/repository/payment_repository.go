package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByPaymentID retrieves a payment by its external identifier
func (r *paymentRepository) GetByPaymentID(paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("payment_id = ?", paymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatusIfCurrent performs the optimistic-locked status transition
func (r *paymentRepository) UpdateStatusIfCurrent(paymentID, expectedStatus string, update PaymentUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status": update.Status,
	}
	if update.ConfirmedAt != nil {
		updates["confirmed_at"] = update.ConfirmedAt
	}
	if update.ClearConfirmedAt {
		updates["confirmed_at"] = nil
	}
	if update.OkxTransactionID != nil {
		updates["okx_transaction_id"] = update.OkxTransactionID
	}
	if update.IncrementAttempts {
		updates["verification_attempts"] = gorm.Expr("verification_attempts + ?", 1)
	}
	if update.LastVerificationAt != nil {
		updates["last_verification_at"] = update.LastVerificationAt
	}

	tx := r.db.Model(&models.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, expectedStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ExpireOverdue moves every non-terminal payment past its expiry to expired
func (r *paymentRepository) ExpireOverdue(now time.Time) (int64, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("status IN ? AND expires_at < ?", []string{models.PaymentStatusPending, models.PaymentStatusConfirming}, now).
		Update("status", models.PaymentStatusExpired)
	return tx.RowsAffected, tx.Error
}
