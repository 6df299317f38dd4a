// internal/repository/account_repo.go
package repository

import (
	"context"

	"finflow-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// BankAccountRepository defines the interface for bank account data operations.
type BankAccountRepository interface {
	CreateBankAccount(ctx context.Context, q DBExecutor, account *domain.BankAccount) error
	GetBankAccountByNumber(ctx context.Context, q DBExecutor, accountNumber string) (*domain.BankAccount, error)
	// LockBankAccount reads the account row with SELECT ... FOR UPDATE. Callers holding
	// several bank rows must lock them in ascending id order.
	LockBankAccount(ctx context.Context, q DBExecutor, id int64) (*domain.BankAccount, error)
	ListBankAccountsByUserID(ctx context.Context, q DBExecutor, userID int64) ([]domain.BankAccount, error)
	// AdjustBankAccountBalance adds delta (which may be negative) to the balance.
	AdjustBankAccountBalance(ctx context.Context, q DBExecutor, id int64, delta decimal.Decimal) error
}

// CryptoAccountRepository defines the interface for crypto account data operations.
type CryptoAccountRepository interface {
	CreateCryptoAccount(ctx context.Context, q DBExecutor, account *domain.CryptoAccount) error
	GetCryptoAccountByUserID(ctx context.Context, q DBExecutor, userID int64) (*domain.CryptoAccount, error)
	LockCryptoAccountByUserID(ctx context.Context, q DBExecutor, userID int64) (*domain.CryptoAccount, error)
	AdjustCryptoAccountBalance(ctx context.Context, q DBExecutor, id int64, delta decimal.Decimal) error
}
