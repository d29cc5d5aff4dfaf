package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PresaleMetricsID is the primary key of the single global metrics row.
const PresaleMetricsID = 1

// PresaleMetrics aggregates totals across all confirmed payments.
type PresaleMetrics struct {
	ID                     uint            `gorm:"primaryKey" json:"-"`
	TotalTokensSold        decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"total_tokens_sold"`
	TotalUsdtContributed   decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"total_usdt_contributed"`
	TotalTokensDistributed decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"total_tokens_distributed"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PresaleMetrics) TableName() string {
	return "presale_metrics"
}
