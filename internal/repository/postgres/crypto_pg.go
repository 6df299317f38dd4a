// internal/repository/postgres/crypto_pg.go
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

// CryptocurrencyRepository implements repository.CryptocurrencyRepository for PostgreSQL.
type CryptocurrencyRepository struct{}

// NewCryptocurrencyRepository creates a new CryptocurrencyRepository.
func NewCryptocurrencyRepository() repository.CryptocurrencyRepository {
	return &CryptocurrencyRepository{}
}

const cryptocurrencyColumns = `id, name, symbol, current_price, last_updated`

// CreateCryptocurrency inserts a tradable asset.
func (r *CryptocurrencyRepository) CreateCryptocurrency(ctx context.Context, q repository.DBExecutor, crypto *domain.Cryptocurrency) error {
	query := `INSERT INTO cryptocurrencies (name, symbol, current_price, last_updated)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, crypto.Name, crypto.Symbol, crypto.CurrentPrice, crypto.LastUpdated).Scan(&crypto.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create cryptocurrency: %w", err)
	}
	return nil
}

// GetCryptocurrencyByID retrieves an asset by id.
func (r *CryptocurrencyRepository) GetCryptocurrencyByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Cryptocurrency, error) {
	var crypto domain.Cryptocurrency
	err := q.GetContext(ctx, &crypto, `SELECT `+cryptocurrencyColumns+` FROM cryptocurrencies WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrCryptoNotFound
		}
		return nil, fmt.Errorf("failed to get cryptocurrency %d: %w", id, err)
	}
	return &crypto, nil
}

// ListCryptocurrencies returns every asset ordered by symbol.
func (r *CryptocurrencyRepository) ListCryptocurrencies(ctx context.Context, q repository.DBExecutor) ([]domain.Cryptocurrency, error) {
	cryptos := []domain.Cryptocurrency{}
	if err := q.SelectContext(ctx, &cryptos, `SELECT `+cryptocurrencyColumns+` FROM cryptocurrencies ORDER BY symbol`); err != nil {
		return nil, fmt.Errorf("failed to list cryptocurrencies: %w", err)
	}
	return cryptos, nil
}

// ScaleAllPrices multiplies every price by factor, rounded to 8 places. Prices whose
// scaled value would reach domain.MaxCryptoValue keep their current value and are not returned.
func (r *CryptocurrencyRepository) ScaleAllPrices(ctx context.Context, q repository.DBExecutor, factor decimal.Decimal, at time.Time) ([]domain.Cryptocurrency, error) {
	cryptos := []domain.Cryptocurrency{}
	query := `UPDATE cryptocurrencies
              SET current_price = ROUND(current_price * $1, 8), last_updated = $2
              WHERE ROUND(current_price * $1, 8) < $3
              RETURNING ` + cryptocurrencyColumns
	if err := q.SelectContext(ctx, &cryptos, query, factor, at, domain.MaxCryptoValue); err != nil {
		return nil, fmt.Errorf("failed to scale cryptocurrency prices: %w", err)
	}
	return cryptos, nil
}

// CryptoTransactionRepository implements repository.CryptoTransactionRepository for PostgreSQL.
type CryptoTransactionRepository struct{}

// NewCryptoTransactionRepository creates a new CryptoTransactionRepository.
func NewCryptoTransactionRepository() repository.CryptoTransactionRepository {
	return &CryptoTransactionRepository{}
}

const cryptoTransactionColumns = `id, user_id, crypto_id, type, amount, price_at_transaction, total_value, status, bank_account_id, created_at, decided_at`

// CreateCryptoTransaction inserts an order.
func (r *CryptoTransactionRepository) CreateCryptoTransaction(ctx context.Context, q repository.DBExecutor, order *domain.CryptoTransaction) error {
	query := `INSERT INTO crypto_transactions
              (user_id, crypto_id, type, amount, price_at_transaction, total_value, status, bank_account_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		order.UserID,
		order.CryptoID,
		order.Type,
		order.Amount,
		order.PriceAtTransaction,
		order.TotalValue,
		order.Status,
		order.BankAccountID,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		if isNumericOverflow(err) {
			return util.NewValidationError("amount", "order value is too large")
		}
		return fmt.Errorf("failed to create crypto transaction: %w", err)
	}
	return nil
}

// GetCryptoTransactionByID retrieves an order without locking it.
func (r *CryptoTransactionRepository) GetCryptoTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.CryptoTransaction, error) {
	return r.getOne(ctx, q, `SELECT `+cryptoTransactionColumns+` FROM crypto_transactions WHERE id = $1`, id)
}

// LockCryptoTransaction retrieves an order under a row lock.
func (r *CryptoTransactionRepository) LockCryptoTransaction(ctx context.Context, q repository.DBExecutor, id int64) (*domain.CryptoTransaction, error) {
	return r.getOne(ctx, q, `SELECT `+cryptoTransactionColumns+` FROM crypto_transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *CryptoTransactionRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, id int64) (*domain.CryptoTransaction, error) {
	var order domain.CryptoTransaction
	if err := q.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get crypto transaction %d: %w", id, err)
	}
	return &order, nil
}

// ListCryptoTransactionsByUserID returns the user's orders, newest first.
func (r *CryptoTransactionRepository) ListCryptoTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.CryptoTransaction, error) {
	orders := []domain.CryptoTransaction{}
	query := `SELECT ` + cryptoTransactionColumns + ` FROM crypto_transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := q.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list crypto transactions for user %d: %w", userID, err)
	}
	return orders, nil
}

// ListPendingCryptoTransactions returns every pending order, oldest first.
func (r *CryptoTransactionRepository) ListPendingCryptoTransactions(ctx context.Context, q repository.DBExecutor) ([]domain.CryptoTransaction, error) {
	orders := []domain.CryptoTransaction{}
	query := `SELECT ` + cryptoTransactionColumns + ` FROM crypto_transactions WHERE status = $1 ORDER BY created_at, id`
	if err := q.SelectContext(ctx, &orders, query, domain.CryptoStatusPending); err != nil {
		return nil, fmt.Errorf("failed to list pending crypto transactions: %w", err)
	}
	return orders, nil
}

// SumPendingByUserID totals total_value over the user's pending orders.
func (r *CryptoTransactionRepository) SumPendingByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(total_value), 0) FROM crypto_transactions WHERE user_id = $1 AND status = $2`
	if err := q.GetContext(ctx, &total, query, userID, domain.CryptoStatusPending); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending orders for user %d: %w", userID, err)
	}
	return total, nil
}

// UpdateCryptoTransactionStatus moves a pending order to a terminal status. Orders that
// are no longer pending are left untouched and reported as util.ErrOrderNotPending.
func (r *CryptoTransactionRepository) UpdateCryptoTransactionStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CryptoTransactionStatus, decidedAt time.Time) error {
	query := `UPDATE crypto_transactions SET status = $1, decided_at = $2 WHERE id = $3 AND status = $4`
	result, err := q.ExecContext(ctx, query, status, decidedAt, id, domain.CryptoStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update status of crypto transaction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for crypto transaction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrOrderNotPending
	}
	return nil
}

// HoldingRepository implements repository.HoldingRepository for PostgreSQL.
type HoldingRepository struct{}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository() repository.HoldingRepository {
	return &HoldingRepository{}
}

// LockHolding reads a holding under a row lock; a missing row reads as zero quantity.
func (r *HoldingRepository) LockHolding(ctx context.Context, q repository.DBExecutor, userID, cryptoID int64) (*domain.CryptoHolding, error) {
	var holding domain.CryptoHolding
	query := `SELECT user_id, crypto_id, quantity, updated_at FROM crypto_holdings WHERE user_id = $1 AND crypto_id = $2 FOR UPDATE`
	err := q.GetContext(ctx, &holding, query, userID, cryptoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.CryptoHolding{UserID: userID, CryptoID: cryptoID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("failed to lock holding of crypto %d for user %d: %w", cryptoID, userID, err)
	}
	return &holding, nil
}

// ListHoldingsByUserID returns the user's non-empty holdings.
func (r *HoldingRepository) ListHoldingsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.CryptoHolding, error) {
	holdings := []domain.CryptoHolding{}
	query := `SELECT user_id, crypto_id, quantity, updated_at FROM crypto_holdings WHERE user_id = $1 AND quantity > 0 ORDER BY crypto_id`
	if err := q.SelectContext(ctx, &holdings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list holdings for user %d: %w", userID, err)
	}
	return holdings, nil
}

// AdjustHolding adds delta to a holding, creating it on first credit.
func (r *HoldingRepository) AdjustHolding(ctx context.Context, q repository.DBExecutor, userID, cryptoID int64, delta decimal.Decimal) error {
	query := `INSERT INTO crypto_holdings (user_id, crypto_id, quantity, updated_at)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (user_id, crypto_id)
              DO UPDATE SET quantity = crypto_holdings.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	if _, err := q.ExecContext(ctx, query, userID, cryptoID, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to adjust holding of crypto %d for user %d: %w", cryptoID, userID, err)
	}
	return nil
}
