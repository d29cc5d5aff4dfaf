package repository

import (
	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
)

type commissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new commission repository instance
func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}
