// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"

	"github.com/shopspring/decimal"
)

// BankAccountRepository implements repository.BankAccountRepository for PostgreSQL.
type BankAccountRepository struct{}

// NewBankAccountRepository creates a new BankAccountRepository.
func NewBankAccountRepository() repository.BankAccountRepository {
	return &BankAccountRepository{}
}

const bankAccountColumns = `id, user_id, account_type, account_number, balance, created_at, updated_at`

// CreateBankAccount inserts a new bank account.
func (r *BankAccountRepository) CreateBankAccount(ctx context.Context, q repository.DBExecutor, account *domain.BankAccount) error {
	query := `INSERT INTO bank_accounts (user_id, account_type, account_number, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.UserID,
		account.AccountType,
		account.AccountNumber,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return util.ErrDuplicateEntry
		case isForeignKeyViolation(err):
			return util.ErrUserNotFound
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

// GetBankAccountByNumber retrieves a bank account by its account number.
func (r *BankAccountRepository) GetBankAccountByNumber(ctx context.Context, q repository.DBExecutor, accountNumber string) (*domain.BankAccount, error) {
	return r.getOne(ctx, q, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE account_number = $1`, accountNumber)
}

// LockBankAccount reads a bank account row under a row lock held until the transaction ends.
func (r *BankAccountRepository) LockBankAccount(ctx context.Context, q repository.DBExecutor, id int64) (*domain.BankAccount, error) {
	return r.getOne(ctx, q, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *BankAccountRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, arg interface{}) (*domain.BankAccount, error) {
	var account domain.BankAccount
	if err := q.GetContext(ctx, &account, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account %v: %w", arg, err)
	}
	return &account, nil
}

// ListBankAccountsByUserID returns the user's bank accounts ordered by id.
func (r *BankAccountRepository) ListBankAccountsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.BankAccount, error) {
	accounts := []domain.BankAccount{}
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE user_id = $1 ORDER BY id`
	if err := q.SelectContext(ctx, &accounts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bank accounts for user %d: %w", userID, err)
	}
	return accounts, nil
}

// AdjustBankAccountBalance adds delta to the balance of a bank account.
func (r *BankAccountRepository) AdjustBankAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	query := `UPDATE bank_accounts SET balance = balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance of bank account %d: %w", id, err)
	}
	return expectOneRow(result, "bank account", id)
}

// CryptoAccountRepository implements repository.CryptoAccountRepository for PostgreSQL.
type CryptoAccountRepository struct{}

// NewCryptoAccountRepository creates a new CryptoAccountRepository.
func NewCryptoAccountRepository() repository.CryptoAccountRepository {
	return &CryptoAccountRepository{}
}

const cryptoAccountColumns = `id, user_id, account_number, balance, created_at, updated_at`

// CreateCryptoAccount inserts a crypto account. A second account for the same user
// violates the unique user_id constraint and yields util.ErrDuplicateEntry.
func (r *CryptoAccountRepository) CreateCryptoAccount(ctx context.Context, q repository.DBExecutor, account *domain.CryptoAccount) error {
	query := `INSERT INTO crypto_accounts (user_id, account_number, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.UserID,
		account.AccountNumber,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return util.ErrDuplicateEntry
		case isForeignKeyViolation(err):
			return util.ErrUserNotFound
		}
		return fmt.Errorf("failed to create crypto account: %w", err)
	}
	return nil
}

// GetCryptoAccountByUserID retrieves the crypto account of a user.
func (r *CryptoAccountRepository) GetCryptoAccountByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.CryptoAccount, error) {
	return r.getOne(ctx, q, `SELECT `+cryptoAccountColumns+` FROM crypto_accounts WHERE user_id = $1`, userID)
}

// LockCryptoAccountByUserID reads the user's crypto account under a row lock.
func (r *CryptoAccountRepository) LockCryptoAccountByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.CryptoAccount, error) {
	return r.getOne(ctx, q, `SELECT `+cryptoAccountColumns+` FROM crypto_accounts WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *CryptoAccountRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, userID int64) (*domain.CryptoAccount, error) {
	var account domain.CryptoAccount
	if err := q.GetContext(ctx, &account, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get crypto account for user %d: %w", userID, err)
	}
	return &account, nil
}

// AdjustCryptoAccountBalance adds delta to the balance of a crypto account.
func (r *CryptoAccountRepository) AdjustCryptoAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	query := `UPDATE crypto_accounts SET balance = balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance of crypto account %d: %w", id, err)
	}
	return expectOneRow(result, "crypto account", id)
}

func expectOneRow(result sql.Result, what string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating %s %d: %w", what, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when updating %s %d: %w", what, id, util.ErrNotFound)
	}
	return nil
}
