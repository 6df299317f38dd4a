// internal/domain/crypto.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cryptocurrency is a tradable asset with a simulated price.
type Cryptocurrency struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Symbol       string          `db:"symbol" json:"symbol"`
	CurrentPrice decimal.Decimal `db:"current_price" json:"current_price"` // NUMERIC(20, 8)
	LastUpdated  time.Time       `db:"last_updated" json:"last_updated"`
}

// MaxCryptoValue is the exclusive upper bound of the NUMERIC(20, 8) columns holding
// prices and crypto account balances.
var MaxCryptoValue = decimal.New(1, 12)

// NewCryptocurrency creates a listed asset priced now.
func NewCryptocurrency(name, symbol string, price decimal.Decimal) *Cryptocurrency {
	return &Cryptocurrency{
		Name:         name,
		Symbol:       symbol,
		CurrentPrice: price,
		LastUpdated:  time.Now().UTC(),
	}
}

// CryptoTransactionType is the kind of a crypto order.
type CryptoTransactionType string

const (
	CryptoTransactionBuy      CryptoTransactionType = "buy"
	CryptoTransactionSell     CryptoTransactionType = "sell"
	CryptoTransactionTransfer CryptoTransactionType = "transfer"
)

// CryptoTransactionStatus is the approval state of a crypto order.
type CryptoTransactionStatus string

const (
	CryptoStatusPending   CryptoTransactionStatus = "pending"
	CryptoStatusCompleted CryptoTransactionStatus = "completed"
	CryptoStatusRejected  CryptoTransactionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s CryptoTransactionStatus) Terminal() bool {
	return s == CryptoStatusCompleted || s == CryptoStatusRejected
}

// CanTransition reports whether s -> next is a legal status change.
// Only pending orders move, and only to completed or rejected.
func (s CryptoTransactionStatus) CanTransition(next CryptoTransactionStatus) bool {
	return s == CryptoStatusPending && next.Terminal()
}

// CryptoTransaction is a buy/sell order awaiting or past admin approval.
type CryptoTransaction struct {
	ID                 int64                   `db:"id" json:"id"`
	UserID             int64                   `db:"user_id" json:"user_id"`
	CryptoID           int64                   `db:"crypto_id" json:"crypto_id"`
	Type               CryptoTransactionType   `db:"type" json:"type"`
	Amount             decimal.Decimal         `db:"amount" json:"amount"`
	PriceAtTransaction decimal.Decimal         `db:"price_at_transaction" json:"price_at_transaction"`
	TotalValue         decimal.Decimal         `db:"total_value" json:"total_value"`
	Status             CryptoTransactionStatus `db:"status" json:"status"`
	BankAccountID      *int64                  `db:"bank_account_id" json:"bank_account_id,omitempty"`
	CreatedAt          time.Time               `db:"created_at" json:"created_at"`
	DecidedAt          *time.Time              `db:"decided_at" json:"decided_at,omitempty"`
}

// OrderValue is amount × price at the crypto account scale.
func OrderValue(amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price).Round(CryptoScale)
}

// NewCryptoOrder creates a pending order priced at the given (frozen) price.
func NewCryptoOrder(userID, cryptoID int64, orderType CryptoTransactionType, amount, price decimal.Decimal) *CryptoTransaction {
	return &CryptoTransaction{
		UserID:             userID,
		CryptoID:           cryptoID,
		Type:               orderType,
		Amount:             amount,
		PriceAtTransaction: price,
		TotalValue:         OrderValue(amount, price),
		Status:             CryptoStatusPending,
		CreatedAt:          time.Now().UTC(),
	}
}

// CryptoHolding is the quantity of one cryptocurrency a user owns outright.
type CryptoHolding struct {
	UserID    int64           `db:"user_id" json:"user_id"`
	CryptoID  int64           `db:"crypto_id" json:"crypto_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
