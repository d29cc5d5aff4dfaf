package okx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Deposit states reported by the deposit-history endpoint that mean the
// funds reached the account.
const (
	depositStateCredited   = "1"
	depositStateSuccessful = "2"
)

var amountTolerance = decimal.RequireFromString("0.01")

type depositRecord struct {
	Ccy   string `json:"ccy"`
	Chain string `json:"chain"`
	Amt   string `json:"amt"`
	To    string `json:"to"`
	TxID  string `json:"txId"`
	State string `json:"state"`
	DepID string `json:"depId"`
}

type depositHistoryResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data []depositRecord `json:"data"`
}

func isCredited(state string) bool {
	switch strings.TrimSpace(state) {
	case depositStateCredited, depositStateSuccessful:
		return true
	default:
		return false
	}
}

// findDeposit returns the first credited deposit matching the transaction
// id, destination and asset.
func findDeposit(records []depositRecord, txID, destination, asset string) *depositRecord {
	for i := range records {
		r := &records[i]
		if r.TxID != txID || r.To != destination {
			continue
		}
		if !strings.EqualFold(r.Ccy, asset) || !isCredited(r.State) {
			continue
		}
		return r
	}
	return nil
}

// WithinTolerance reports whether actual is within 1% (inclusive) of expected.
func WithinTolerance(expected, actual decimal.Decimal) bool {
	allowed := expected.Abs().Mul(amountTolerance)
	return actual.Sub(expected).Abs().LessThanOrEqual(allowed)
}

func matchDeposit(records []depositRecord, txID string, expectedAmount decimal.Decimal, destination, asset string) VerificationResult {
	rec := findDeposit(records, txID, destination, asset)
	if rec == nil {
		return VerificationResult{Error: "Transaction not found or not yet confirmed"}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec.Amt))
	if err != nil {
		return VerificationResult{Error: fmt.Sprintf("Invalid deposit amount reported by provider: %q", rec.Amt)}
	}
	if !WithinTolerance(expectedAmount, amount) {
		return VerificationResult{
			Amount: &amount,
			Error:  fmt.Sprintf("Amount mismatch: expected %s %s, received %s %s", expectedAmount.String(), asset, amount.String(), asset),
		}
	}
	return VerificationResult{Verified: true, Amount: &amount}
}
