// internal/domain/history.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountHistory is the immutable daily balance snapshot of one user.
type AccountHistory struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Date            time.Time       `db:"date" json:"date"`
	CheckingBalance decimal.Decimal `db:"checking_balance" json:"checking_balance"`
	SavingsBalance  decimal.Decimal `db:"savings_balance" json:"savings_balance"`
	BusinessBalance decimal.Decimal `db:"business_balance" json:"business_balance"`
	CryptoBalance   decimal.Decimal `db:"crypto_balance" json:"crypto_balance"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// SnapshotDate truncates t to its UTC calendar day.
func SnapshotDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BalanceFor returns the snapshot balance recorded for a bank account type.
func (h AccountHistory) BalanceFor(t AccountType) decimal.Decimal {
	switch t {
	case AccountTypeChecking:
		return h.CheckingBalance
	case AccountTypeSavings:
		return h.SavingsBalance
	case AccountTypeBusiness:
		return h.BusinessBalance
	}
	return decimal.Zero
}
