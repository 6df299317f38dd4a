// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction appends a bank-side leg.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (account_id, type, amount, description, related_account_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount,
		transaction.Description,
		transaction.RelatedAccountID,
		transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactionsByUserID retrieves a page of legs across the user's bank accounts.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) ListTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	query := `
		SELECT t.id, t.account_id, t.type, t.amount, t.description, t.related_account_id, t.created_at
		FROM transactions t
		JOIN bank_accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &transactions, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN bank_accounts a ON a.id = t.account_id
		WHERE a.user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for user %d: %w", userID, err)
	}

	return transactions, totalCount, nil
}

// CryptoLedgerRepository implements repository.CryptoLedgerRepository for PostgreSQL.
type CryptoLedgerRepository struct{}

// NewCryptoLedgerRepository creates a new CryptoLedgerRepository.
func NewCryptoLedgerRepository() repository.CryptoLedgerRepository {
	return &CryptoLedgerRepository{}
}

// CreateCryptoLedgerEntry appends a crypto-side leg.
func (r *CryptoLedgerRepository) CreateCryptoLedgerEntry(ctx context.Context, q repository.DBExecutor, entry *domain.CryptoLedgerEntry) error {
	query := `INSERT INTO crypto_ledger_entries
              (crypto_account_id, type, amount, description, related_bank_account_id, crypto_transaction_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		entry.CryptoAccountID,
		entry.Type,
		entry.Amount,
		entry.Description,
		entry.RelatedBankAccountID,
		entry.CryptoTransactionID,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create crypto ledger entry: %w", err)
	}
	return nil
}

// ListCryptoLedgerEntries returns the most recent legs of a crypto account.
func (r *CryptoLedgerRepository) ListCryptoLedgerEntries(ctx context.Context, q repository.DBExecutor, cryptoAccountID int64, limit int) ([]domain.CryptoLedgerEntry, error) {
	entries := []domain.CryptoLedgerEntry{}
	query := `
		SELECT id, crypto_account_id, type, amount, description, related_bank_account_id, crypto_transaction_id, created_at
		FROM crypto_ledger_entries
		WHERE crypto_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	if err := q.SelectContext(ctx, &entries, query, cryptoAccountID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch crypto ledger entries for account %d: %w", cryptoAccountID, err)
	}
	return entries, nil
}
