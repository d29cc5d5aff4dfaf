// Package commission walks a buyer's referral chain and records one pending
// commission per ancestor level.
package commission

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/mxi-labs/presale/app/models"
)

// MaxLevels is the depth of the referral chain that earns commissions.
const MaxLevels = 3

var defaultRates = []decimal.Decimal{
	decimal.RequireFromString("0.05"),
	decimal.RequireFromString("0.02"),
	decimal.RequireFromString("0.01"),
}

var hundred = decimal.NewFromInt(100)

// Store is the slice of the ledger the engine reads and writes.
type Store interface {
	GetReferrerID(ctx context.Context, userID string) (*string, error)
	CreateCommission(ctx context.Context, commission *models.Commission) error
}

// Engine computes and persists referral commissions.
type Engine struct {
	rates []decimal.Decimal
}

// NewEngine returns an engine with the 5% / 2% / 1% level rates.
func NewEngine() *Engine {
	return &Engine{rates: defaultRates}
}

// Rate returns the commission rate for a 1-based level, or zero past MaxLevels.
func (e *Engine) Rate(level int) decimal.Decimal {
	if level < 1 || level > len(e.rates) {
		return decimal.Zero
	}
	return e.rates[level-1]
}

// FanOut records commissions for the referral chain above payingUserID.
// It must be called once per confirmed payment; there is no dedup here.
// A failed insert aborts the whole pass, while a failed lookup of a
// higher-level referrer only ends the chain early.
func (e *Engine) FanOut(ctx context.Context, store Store, payingUserID string, contribution decimal.Decimal) ([]models.Commission, error) {
	referrerID, err := store.GetReferrerID(ctx, payingUserID)
	if err != nil {
		return nil, fmt.Errorf("lookup referrer of %s: %w", payingUserID, err)
	}

	var created []models.Commission
	current := referrerID
	for level := 1; level <= len(e.rates); level++ {
		if current == nil || strings.TrimSpace(*current) == "" {
			break
		}

		rate := e.Rate(level)
		row := &models.Commission{
			UserID:     *current,
			FromUserID: payingUserID,
			Level:      level,
			Amount:     contribution.Mul(rate),
			Percentage: rate.Mul(hundred),
			Status:     models.CommissionStatusPending,
		}
		if err := store.CreateCommission(ctx, row); err != nil {
			return created, fmt.Errorf("insert level %d commission for %s: %w", level, *current, err)
		}
		created = append(created, *row)

		if level == len(e.rates) {
			break
		}
		next, err := store.GetReferrerID(ctx, *current)
		if err != nil {
			log.Warnf("[Commission] Stopping chain at level %d, referrer lookup for %s failed: %v", level, *current, err)
			break
		}
		current = next
	}

	return created, nil
}
