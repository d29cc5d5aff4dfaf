package payment

import "github.com/shopspring/decimal"

type yieldTier struct {
	minContributed decimal.Decimal
	ratePerMinute  decimal.Decimal
}

// yieldTiers is ordered from the highest threshold down.
var yieldTiers = []yieldTier{
	{decimal.NewFromInt(100000), decimal.RequireFromString("0.022222222")},
	{decimal.NewFromInt(50000), decimal.RequireFromString("0.011111111")},
	{decimal.NewFromInt(10000), decimal.RequireFromString("0.005555556")},
	{decimal.NewFromInt(5000), decimal.RequireFromString("0.002777778")},
	{decimal.NewFromInt(1000), decimal.RequireFromString("0.001388889")},
	{decimal.NewFromInt(500), decimal.RequireFromString("0.000694444")},
	{decimal.NewFromInt(20), decimal.RequireFromString("0.000347222")},
}

// YieldRateFor returns the per-minute yield rate for a cumulative
// contribution. Thresholds are inclusive.
func YieldRateFor(contributed decimal.Decimal) decimal.Decimal {
	for _, tier := range yieldTiers {
		if contributed.GreaterThanOrEqual(tier.minContributed) {
			return tier.ratePerMinute
		}
	}
	return decimal.Zero
}
