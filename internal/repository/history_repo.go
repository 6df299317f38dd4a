// internal/repository/history_repo.go
package repository

import (
	"context"
	"time"

	"finflow-ledger/internal/domain"
)

// AccountHistoryRepository stores daily balance snapshots.
type AccountHistoryRepository interface {
	// CreateSnapshot inserts a snapshot; it returns util.ErrDuplicateEntry when the
	// (user, date) row already exists.
	CreateSnapshot(ctx context.Context, q DBExecutor, snapshot *domain.AccountHistory) error
	// ListSnapshotsSince returns the user's snapshots dated on or after since, oldest first.
	ListSnapshotsSince(ctx context.Context, q DBExecutor, userID int64, since time.Time) ([]domain.AccountHistory, error)
}
