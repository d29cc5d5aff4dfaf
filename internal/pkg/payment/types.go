package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mxi-labs/presale/app/models"
)

type Action string

const (
	ActionVerify  Action = "verify"
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
)

// ParseAction accepts the action names case-insensitively.
func ParseAction(raw string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionVerify, ActionConfirm, ActionReject:
		return a, true
	default:
		return "", false
	}
}

// Command is one request against a payment. AdminID is only recorded for
// confirm and reject.
type Command struct {
	PaymentID     string
	Action        Action
	TransactionID *string
	AdminID       *string
}

// Result is the successful outcome of Handle. VerificationError is set when
// a verify request was parked for manual review.
type Result struct {
	Success           bool
	Message           string
	Status            string
	Payment           *models.Payment
	NewBalance        *decimal.Decimal
	YieldRate         *decimal.Decimal
	VerificationError string
}
