package payment

import "errors"

// ErrorCode classifies a failed payment operation for callers.
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeNotFound           ErrorCode = "PAYMENT_NOT_FOUND"
	CodeExpired            ErrorCode = "PAYMENT_EXPIRED"
	CodeAlreadyProcessed   ErrorCode = "PAYMENT_ALREADY_PROCESSED"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	CodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	CodeTransactionFailed  ErrorCode = "TRANSACTION_FAILED"
	CodeInvalidAction      ErrorCode = "INVALID_ACTION"
	CodeNetworkError       ErrorCode = "NETWORK_ERROR"
)

// ErrConcurrentUpdate is returned by a conditional status transition when
// the row no longer has the status it was read with.
var ErrConcurrentUpdate = errors.New("payment already processed by another request")

// Error is a payment failure carrying a stable code and a caller-facing message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the code of a payment error. Anything else is reported as
// a database error, the only other failure source of the service.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeDatabaseError
}

// Retryable reports whether the same request may succeed when repeated later.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeDatabaseError, CodeNetworkError:
		return true
	default:
		return false
	}
}
