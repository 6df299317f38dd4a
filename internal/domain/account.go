// internal/domain/account.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scales of stored amounts.
const (
	FiatScale   int32 = 2
	CryptoScale int32 = 8
)

// AccountType is the kind of a bank account.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeBusiness AccountType = "business"
)

// AccountTypes lists the bank account types in display order.
var AccountTypes = []AccountType{AccountTypeChecking, AccountTypeSavings, AccountTypeBusiness}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeBusiness:
		return true
	}
	return false
}

// Label is the human-readable name of the account type.
func (t AccountType) Label() string {
	switch t {
	case AccountTypeChecking:
		return "Checking"
	case AccountTypeSavings:
		return "Savings"
	case AccountTypeBusiness:
		return "Business"
	}
	return string(t)
}

// BankAccount is a fiat account owned by a single user.
type BankAccount struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	AccountType   AccountType     `db:"account_type" json:"account_type"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	Balance       decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(15, 2)
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewBankAccount creates an empty bank account.
func NewBankAccount(userID int64, accountType AccountType, accountNumber string) *BankAccount {
	now := time.Now().UTC()
	return &BankAccount{
		UserID:        userID,
		AccountType:   accountType,
		AccountNumber: accountNumber,
		Balance:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CryptoAccount holds the fiat-equivalent value a user keeps for crypto trading. One per user.
type CryptoAccount struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	Balance       decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(20, 8)
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewCryptoAccount creates an empty crypto account.
func NewCryptoAccount(userID int64, accountNumber string) *CryptoAccount {
	now := time.Now().UTC()
	return &CryptoAccount{
		UserID:        userID,
		AccountNumber: accountNumber,
		Balance:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
