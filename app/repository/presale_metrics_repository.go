package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mxi-labs/presale/app/models"
)

type presaleMetricsRepository struct {
	db *gorm.DB
}

// NewPresaleMetricsRepository creates a new metrics repository instance
func NewPresaleMetricsRepository(db *gorm.DB) PresaleMetricsRepository {
	return &presaleMetricsRepository{db: db}
}

// Get returns the global metrics row
func (r *presaleMetricsRepository) Get() (*models.PresaleMetrics, error) {
	var m models.PresaleMetrics
	if err := r.db.First(&m, models.PresaleMetricsID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Increment adds delta to the global metrics row, creating it on first use
func (r *presaleMetricsRepository) Increment(delta MetricsDelta) error {
	row := &models.PresaleMetrics{
		ID:                     models.PresaleMetricsID,
		TotalTokensSold:        delta.TokensSold,
		TotalUsdtContributed:   delta.UsdtContributed,
		TotalTokensDistributed: delta.TokensDistributed,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_tokens_sold":        gorm.Expr("total_tokens_sold + ?", delta.TokensSold),
			"total_usdt_contributed":   gorm.Expr("total_usdt_contributed + ?", delta.UsdtContributed),
			"total_tokens_distributed": gorm.Expr("total_tokens_distributed + ?", delta.TokensDistributed),
		}),
	}).Create(row).Error
}
