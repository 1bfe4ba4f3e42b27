package engine

import (
	"errors"
	"fmt"

	"github.com/mzavyalov/bankdm/internal/model"
)

// CalcError is a structured engine failure.
type CalcError struct {
	// Code identifies the error category.
	Code CalcErrorCode

	// Stage names the failing operation (calc_turnover, calc_balance, ...).
	Stage string

	// Date is the date or report date the operation covered.
	Date model.Date

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// CalcErrorCode categorizes engine failures.
type CalcErrorCode string

const (
	// ErrCodeNoPriorBalances indicates a balance calculation was attempted
	// for a date whose preceding date has no materialized balances.
	ErrCodeNoPriorBalances CalcErrorCode = "NO_PRIOR_BALANCES"

	// ErrCodeNoSnapshot indicates a balance seed found no opening-balance
	// snapshot rows for the requested date.
	ErrCodeNoSnapshot CalcErrorCode = "NO_SNAPSHOT"

	// ErrCodeReplaceFailed indicates a fault during the delete-then-insert
	// rewrite; the prior committed state for the key is preserved.
	ErrCodeReplaceFailed CalcErrorCode = "REPLACE_FAILED"
)

// Error implements the error interface.
func (e *CalcError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %s: %v", e.Code, e.Stage, e.Date, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Stage, e.Date, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CalcError) Unwrap() error {
	return e.Err
}

// IsNoPriorBalances reports whether err is an ordering violation: the
// prior day's balances were not materialized before the call.
func IsNoPriorBalances(err error) bool {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNoPriorBalances
	}
	return false
}

func newCalcError(code CalcErrorCode, stage string, date model.Date, message string, err error) *CalcError {
	return &CalcError{Code: code, Stage: stage, Date: date, Message: message, Err: err}
}
