// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType defines the type of a bank-side transaction leg.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
)

// Transaction is one immutable leg of a movement on a bank account. Amount is always positive;
// the type and the counterpart describe the direction.
type Transaction struct {
	ID               int64           `db:"id" json:"id"`
	AccountID        int64           `db:"account_id" json:"account_id"`
	Type             TransactionType `db:"type" json:"type"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Description      string          `db:"description" json:"description"`
	RelatedAccountID *int64          `db:"related_account_id" json:"related_account_id,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// NewTransaction creates a leg for accountID.
func NewTransaction(accountID int64, txType TransactionType, amount decimal.Decimal, description string, relatedAccountID *int64) *Transaction {
	return &Transaction{
		AccountID:        accountID,
		Type:             txType,
		Amount:           amount,
		Description:      description,
		RelatedAccountID: relatedAccountID,
		CreatedAt:        time.Now().UTC(),
	}
}

// CryptoEntryType classifies a crypto account leg.
type CryptoEntryType string

const (
	CryptoEntryTransferIn   CryptoEntryType = "transfer_in"   // bank -> crypto
	CryptoEntryTransferOut  CryptoEntryType = "transfer_out"  // crypto -> bank
	CryptoEntryOrderReserve CryptoEntryType = "order_reserve" // buy funds reserved
	CryptoEntryOrderRefund  CryptoEntryType = "order_refund"  // rejected buy returned
	CryptoEntryOrderSettle  CryptoEntryType = "order_settle"  // approved sell credited
)

// Credit reports whether the entry increases the crypto account balance.
func (t CryptoEntryType) Credit() bool {
	switch t {
	case CryptoEntryTransferIn, CryptoEntryOrderRefund, CryptoEntryOrderSettle:
		return true
	}
	return false
}

// CryptoLedgerEntry mirrors Transaction on the crypto account side.
type CryptoLedgerEntry struct {
	ID                   int64           `db:"id" json:"id"`
	CryptoAccountID      int64           `db:"crypto_account_id" json:"crypto_account_id"`
	Type                 CryptoEntryType `db:"type" json:"type"`
	Amount               decimal.Decimal `db:"amount" json:"amount"`
	Description          string          `db:"description" json:"description"`
	RelatedBankAccountID *int64          `db:"related_bank_account_id" json:"related_bank_account_id,omitempty"`
	CryptoTransactionID  *int64          `db:"crypto_transaction_id" json:"crypto_transaction_id,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}

// NewCryptoLedgerEntry creates a crypto-side leg.
func NewCryptoLedgerEntry(cryptoAccountID int64, entryType CryptoEntryType, amount decimal.Decimal, description string) *CryptoLedgerEntry {
	return &CryptoLedgerEntry{
		CryptoAccountID: cryptoAccountID,
		Type:            entryType,
		Amount:          amount,
		Description:     description,
		CreatedAt:       time.Now().UTC(),
	}
}
