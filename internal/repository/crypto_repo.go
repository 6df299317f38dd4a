// internal/repository/crypto_repo.go
package repository

import (
	"context"
	"time"

	"finflow-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// CryptocurrencyRepository defines the interface for tradable asset data.
type CryptocurrencyRepository interface {
	CreateCryptocurrency(ctx context.Context, q DBExecutor, crypto *domain.Cryptocurrency) error
	GetCryptocurrencyByID(ctx context.Context, q DBExecutor, id int64) (*domain.Cryptocurrency, error)
	ListCryptocurrencies(ctx context.Context, q DBExecutor) ([]domain.Cryptocurrency, error)
	// ScaleAllPrices multiplies every current price by factor and returns the updated rows.
	// Rows that would overflow the price column are skipped.
	ScaleAllPrices(ctx context.Context, q DBExecutor, factor decimal.Decimal, at time.Time) ([]domain.Cryptocurrency, error)
}

// CryptoTransactionRepository defines the interface for crypto order data.
type CryptoTransactionRepository interface {
	CreateCryptoTransaction(ctx context.Context, q DBExecutor, order *domain.CryptoTransaction) error
	GetCryptoTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.CryptoTransaction, error)
	LockCryptoTransaction(ctx context.Context, q DBExecutor, id int64) (*domain.CryptoTransaction, error)
	ListCryptoTransactionsByUserID(ctx context.Context, q DBExecutor, userID int64) ([]domain.CryptoTransaction, error)
	ListPendingCryptoTransactions(ctx context.Context, q DBExecutor) ([]domain.CryptoTransaction, error)
	// SumPendingByUserID totals total_value over the user's pending orders.
	SumPendingByUserID(ctx context.Context, q DBExecutor, userID int64) (decimal.Decimal, error)
	UpdateCryptoTransactionStatus(ctx context.Context, q DBExecutor, id int64, status domain.CryptoTransactionStatus, decidedAt time.Time) error
}

// HoldingRepository defines the interface for per-asset quantities owned by users.
type HoldingRepository interface {
	// LockHolding returns the holding row under FOR UPDATE, or a zero-quantity holding when none exists.
	LockHolding(ctx context.Context, q DBExecutor, userID, cryptoID int64) (*domain.CryptoHolding, error)
	ListHoldingsByUserID(ctx context.Context, q DBExecutor, userID int64) ([]domain.CryptoHolding, error)
	// AdjustHolding adds delta to the quantity, creating the row when needed.
	AdjustHolding(ctx context.Context, q DBExecutor, userID, cryptoID int64, delta decimal.Decimal) error
}
