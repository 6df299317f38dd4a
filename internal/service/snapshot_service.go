// internal/service/snapshot_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/events"
)

// SnapshotService writes the daily balance history.
type SnapshotService interface {
	// RunDaily snapshots every user for today's date. Users already snapshotted today are
	// skipped; other per-user failures are counted and do not stop the run.
	RunDaily(ctx context.Context) (SnapshotSummary, error)
	SnapshotUser(ctx context.Context, userID int64, date time.Time) (*domain.AccountHistory, error)
}

// SnapshotSummary reports the outcome of one run.
type SnapshotSummary struct {
	Date    time.Time `json:"date"`
	Created int       `json:"created"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
}

type snapshotService struct {
	dbExecutor repository.DBExecutor
	repos      Repositories
	publisher  events.Publisher
	clock      util.Clock
	logger     *slog.Logger
}

// NewSnapshotService creates a new instance of SnapshotService.
func NewSnapshotService(dbExecutor repository.DBExecutor, repos Repositories, publisher events.Publisher, clock util.Clock, logger *slog.Logger) SnapshotService {
	return &snapshotService{
		dbExecutor: dbExecutor,
		repos:      repos,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}
}

func (s *snapshotService) RunDaily(ctx context.Context) (SnapshotSummary, error) {
	summary := SnapshotSummary{Date: domain.SnapshotDate(s.clock.NowUTC())}

	userIDs, err := s.repos.Users.ListUserIDs(ctx, s.dbExecutor)
	if err != nil {
		return summary, fmt.Errorf("snapshot: %w", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, err := s.SnapshotUser(ctx, userID, summary.Date)
		switch {
		case err == nil:
			summary.Created++
		case errors.Is(err, util.ErrDuplicateEntry):
			summary.Skipped++
			s.logger.Info("snapshot already exists", "user_id", userID, "date", summary.Date.Format(time.DateOnly))
		default:
			summary.Failed++
			s.logger.Error("snapshot failed", "user_id", userID, "error", err)
		}
	}

	event := events.SnapshotCompletedEvent{
		EventID:   uuid.New(),
		Date:      summary.Date.Format(time.DateOnly),
		Created:   summary.Created,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		Timestamp: s.clock.NowUTC(),
	}
	if err := s.publisher.Publish(ctx, events.RoutingSnapshotCompleted, event); err != nil {
		s.logger.Error("failed to publish snapshot summary", "error", err)
	}
	return summary, nil
}

// SnapshotUser records the user's balances for date: the first account of each type
// (lowest id) and the crypto account, zero where absent.
func (s *snapshotService) SnapshotUser(ctx context.Context, userID int64, date time.Time) (*domain.AccountHistory, error) {
	accounts, err := s.repos.BankAccounts.ListBankAccountsByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, err
	}

	cryptoBalance := decimal.Zero
	crypto, err := s.repos.CryptoAccounts.GetCryptoAccountByUserID(ctx, s.dbExecutor, userID)
	switch {
	case err == nil:
		cryptoBalance = crypto.Balance
	case !errors.Is(err, util.ErrAccountNotFound):
		return nil, err
	}

	first := firstBalanceByType(accounts)
	snapshot := &domain.AccountHistory{
		UserID:          userID,
		Date:            domain.SnapshotDate(date),
		CheckingBalance: first[domain.AccountTypeChecking],
		SavingsBalance:  first[domain.AccountTypeSavings],
		BusinessBalance: first[domain.AccountTypeBusiness],
		CryptoBalance:   cryptoBalance,
		CreatedAt:       s.clock.NowUTC(),
	}
	if err := s.repos.History.CreateSnapshot(ctx, s.dbExecutor, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// firstBalanceByType picks the balance of the first account seen per type; accounts
// arrive ordered by id. Missing types map to zero.
func firstBalanceByType(accounts []domain.BankAccount) map[domain.AccountType]decimal.Decimal {
	out := make(map[domain.AccountType]decimal.Decimal, len(domain.AccountTypes))
	for _, t := range domain.AccountTypes {
		out[t] = decimal.Zero
	}
	seen := make(map[domain.AccountType]bool, len(domain.AccountTypes))
	for _, a := range accounts {
		if seen[a.AccountType] {
			continue
		}
		seen[a.AccountType] = true
		out[a.AccountType] = a.Balance
	}
	return out
}
