// internal/util/errors.go
package util

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common application-specific errors.
var (
	ErrNotFound                   = errors.New("resource not found")
	ErrInvalidInput               = errors.New("invalid input provided")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientAvailableFunds = errors.New("insufficient available funds")
	ErrInsufficientHoldings       = errors.New("insufficient holdings")
	ErrSameAccountTransfer        = errors.New("cannot transfer to the same account")
	ErrAccountNotFound            = errors.New("account not found")
	ErrDestinationNotFound        = errors.New("destination account not found")
	ErrUserNotFound               = errors.New("user not found")
	ErrCryptoNotFound             = errors.New("cryptocurrency not found")
	ErrForbidden                  = errors.New("forbidden")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrOrderNotPending            = errors.New("order is not pending")
	ErrDuplicateEntry             = errors.New("duplicate entry") // unique constraint violations, e.g. a second snapshot for the same day
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AvailableFundsError is returned when a crypto withdrawal exceeds the balance left after pending orders.
type AvailableFundsError struct {
	Available decimal.Decimal
	Pending   decimal.Decimal
}

func (e *AvailableFundsError) Error() string {
	return fmt.Sprintf("Insufficient available funds. You have $%s available (excluding $%s in pending orders)",
		e.Available.StringFixed(2), e.Pending.StringFixed(2))
}

// Is lets errors.Is(err, ErrInsufficientAvailableFunds) match.
func (e *AvailableFundsError) Is(target error) bool {
	return target == ErrInsufficientAvailableFunds
}
