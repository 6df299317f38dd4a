// internal/util/errors_test.go
package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAvailableFundsError(t *testing.T) {
	err := fmt.Errorf("transfer from crypto: %w", &AvailableFundsError{
		Available: decimal.RequireFromString("600"),
		Pending:   decimal.RequireFromString("400.5"),
	})

	assert.True(t, IsError(err, ErrInsufficientAvailableFunds))
	assert.False(t, IsError(err, ErrInsufficientFunds))

	var fundsErr *AvailableFundsError
	assert.True(t, errors.As(err, &fundsErr))
	assert.Equal(t, "Insufficient available funds. You have $600.00 available (excluding $400.50 in pending orders)", fundsErr.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", "must be greater than zero")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "amount: must be greater than zero", err.Error())
	assert.Equal(t, "bad", (&ValidationError{Reason: "bad"}).Error())
}
