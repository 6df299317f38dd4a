// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"finflow-ledger/internal/domain"
)

// TransactionRepository stores bank-side transaction legs.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// ListTransactionsByUserID returns legs across all of the user's bank accounts, newest first,
	// together with the total number of legs.
	ListTransactionsByUserID(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error)
}

// CryptoLedgerRepository stores crypto-side legs.
type CryptoLedgerRepository interface {
	CreateCryptoLedgerEntry(ctx context.Context, q DBExecutor, entry *domain.CryptoLedgerEntry) error
	ListCryptoLedgerEntries(ctx context.Context, q DBExecutor, cryptoAccountID int64, limit int) ([]domain.CryptoLedgerEntry, error)
}
