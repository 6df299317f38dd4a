// internal/repository/postgres/history_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// AccountHistoryRepository implements repository.AccountHistoryRepository for PostgreSQL.
type AccountHistoryRepository struct{}

// NewAccountHistoryRepository creates a new AccountHistoryRepository.
func NewAccountHistoryRepository() repository.AccountHistoryRepository {
	return &AccountHistoryRepository{}
}

// CreateSnapshot inserts one daily row. The (user_id, date) unique constraint rejects a
// second row for the same day; it never overwrites.
func (r *AccountHistoryRepository) CreateSnapshot(ctx context.Context, q repository.DBExecutor, snapshot *domain.AccountHistory) error {
	query := `INSERT INTO account_history
              (user_id, date, checking_balance, savings_balance, business_balance, crypto_balance, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		snapshot.UserID,
		snapshot.Date,
		snapshot.CheckingBalance,
		snapshot.SavingsBalance,
		snapshot.BusinessBalance,
		snapshot.CryptoBalance,
		snapshot.CreatedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("snapshot for user %d on %s: %w", snapshot.UserID, snapshot.Date.Format(time.DateOnly), util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create snapshot for user %d: %w", snapshot.UserID, err)
	}
	return nil
}

// ListSnapshotsSince returns the user's snapshots dated on or after since, oldest first.
func (r *AccountHistoryRepository) ListSnapshotsSince(ctx context.Context, q repository.DBExecutor, userID int64, since time.Time) ([]domain.AccountHistory, error) {
	snapshots := []domain.AccountHistory{}
	query := `
		SELECT id, user_id, date, checking_balance, savings_balance, business_balance, crypto_balance, created_at
		FROM account_history
		WHERE user_id = $1 AND date >= $2
		ORDER BY date`
	if err := q.SelectContext(ctx, &snapshots, query, userID, domain.SnapshotDate(since)); err != nil {
		return nil, fmt.Errorf("failed to list snapshots for user %d: %w", userID, err)
	}
	return snapshots, nil
}
