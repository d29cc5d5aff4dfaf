package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User carries the presale balance record of an account. ReferredBy is set
// once at sign-up and never changed afterwards.
type User struct {
	ID                   string          `gorm:"type:char(36);primaryKey" json:"id"`
	Name                 string          `gorm:"type:varchar(150)" json:"name"`
	Email                string          `gorm:"uniqueIndex;type:varchar(200)" json:"email"`
	ReferredBy           *string         `gorm:"type:char(36);default:null;index" json:"referred_by,omitempty"`
	MxiBalance           decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"mxi_balance"`
	UsdtContributed      decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"usdt_contributed"`
	MxiPurchasedDirectly decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"mxi_purchased_directly"`
	IsActiveContributor  bool            `gorm:"default:false" json:"is_active_contributor"`
	YieldRatePerMinute   decimal.Decimal `gorm:"type:decimal(20,9);not null;default:0" json:"yield_rate_per_minute"`
	LastYieldUpdate      *time.Time      `gorm:"type:timestamp;default:null" json:"last_yield_update,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(u.ID) == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasReferrer reports whether the user was referred by another account.
func (u *User) HasReferrer() bool {
	return u.ReferredBy != nil && strings.TrimSpace(*u.ReferredBy) != ""
}
