// internal/service/reporting_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// chartPoints is the number of labels on the history chart; the last one is "now".
const chartPoints = 7

// ReportingService builds read-only views over balances and snapshots.
type ReportingService interface {
	Dashboard(ctx context.Context, caller domain.Caller, timeRange domain.TimeRange) (*domain.Dashboard, error)
}

type reportingService struct {
	dbExecutor repository.DBExecutor
	repos      Repositories
	clock      util.Clock
}

// NewReportingService creates a new instance of ReportingService.
func NewReportingService(dbExecutor repository.DBExecutor, repos Repositories, clock util.Clock) ReportingService {
	return &reportingService{dbExecutor: dbExecutor, repos: repos, clock: clock}
}

// currentBalances are the balances charted for "now".
type currentBalances struct {
	byType map[domain.AccountType]decimal.Decimal
	crypto decimal.Decimal
}

func (s *reportingService) Dashboard(ctx context.Context, caller domain.Caller, timeRange domain.TimeRange) (*domain.Dashboard, error) {
	accounts, err := s.repos.BankAccounts.ListBankAccountsByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	current := currentBalances{byType: sumByType(accounts), crypto: decimal.Zero}
	crypto, err := s.repos.CryptoAccounts.GetCryptoAccountByUserID(ctx, s.dbExecutor, caller.UserID)
	switch {
	case err == nil:
		current.crypto = crypto.Balance
	case !errors.Is(err, util.ErrAccountNotFound):
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	pending, err := s.repos.CryptoOrders.SumPendingByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	now := s.clock.NowUTC()
	spec := timeRange.Spec()
	// One extra day back so the first label can use the snapshot taken before the window.
	snapshots, err := s.repos.History.ListSnapshotsSince(ctx, s.dbExecutor, caller.UserID, now.Add(-spec.Window).Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	total := current.crypto
	for _, t := range domain.AccountTypes {
		total = total.Add(current.byType[t])
	}

	return &domain.Dashboard{
		Range:         timeRange,
		Accounts:      accounts,
		AccountTotals: current.byType,
		CryptoBalance: current.crypto,
		PendingOrders: pending,
		TotalBalance:  total,
		TimeSeries:    buildTimeSeries(now, spec, snapshots, current),
		Distribution:  buildDistribution(current, pending),
	}, nil
}

func sumByType(accounts []domain.BankAccount) map[domain.AccountType]decimal.Decimal {
	totals := make(map[domain.AccountType]decimal.Decimal, len(domain.AccountTypes))
	for _, t := range domain.AccountTypes {
		totals[t] = decimal.Zero
	}
	for _, a := range accounts {
		totals[a.AccountType] = totals[a.AccountType].Add(a.Balance)
	}
	return totals
}

// buildTimeSeries spreads chartPoints labels evenly over the window ending at now. Each
// point but the last takes the latest snapshot dated on or before it (zero if none); the
// last point is the current balances. Snapshots must be ordered by date.
func buildTimeSeries(now time.Time, spec domain.RangeSpec, snapshots []domain.AccountHistory, current currentBalances) domain.TimeSeries {
	ts := domain.TimeSeries{Labels: make([]string, chartPoints)}
	for _, t := range domain.AccountTypes {
		ts.Series = append(ts.Series, domain.Series{Label: t.Label(), Color: domain.ColorFor(t), Values: make([]decimal.Decimal, chartPoints)})
	}
	ts.Series = append(ts.Series, domain.Series{Label: domain.LabelCrypto, Color: domain.ColorCrypto, Values: make([]decimal.Decimal, chartPoints)})
	cryptoIdx := len(ts.Series) - 1

	start := now.Add(-spec.Window)
	step := spec.Window / (chartPoints - 1)
	for i := 0; i < chartPoints; i++ {
		at := start.Add(step * time.Duration(i))
		ts.Labels[i] = at.Format(spec.LabelFormat)

		if i == chartPoints-1 {
			for j, t := range domain.AccountTypes {
				ts.Series[j].Values[i] = current.byType[t]
			}
			ts.Series[cryptoIdx].Values[i] = current.crypto
			continue
		}

		snap := latestOnOrBefore(snapshots, at)
		for j, t := range domain.AccountTypes {
			if snap != nil {
				ts.Series[j].Values[i] = snap.BalanceFor(t)
			} else {
				ts.Series[j].Values[i] = decimal.Zero
			}
		}
		if snap != nil {
			ts.Series[cryptoIdx].Values[i] = snap.CryptoBalance
		} else {
			ts.Series[cryptoIdx].Values[i] = decimal.Zero
		}
	}
	return ts
}

func latestOnOrBefore(snapshots []domain.AccountHistory, at time.Time) *domain.AccountHistory {
	var found *domain.AccountHistory
	for i := range snapshots {
		if snapshots[i].Date.After(at) {
			break
		}
		found = &snapshots[i]
	}
	return found
}

// buildDistribution returns the current balance buckets; the pending bucket is present only when non-zero.
func buildDistribution(current currentBalances, pending decimal.Decimal) []domain.DistributionSlice {
	slices := make([]domain.DistributionSlice, 0, len(domain.AccountTypes)+2)
	for _, t := range domain.AccountTypes {
		slices = append(slices, domain.DistributionSlice{Label: t.Label(), Color: domain.ColorFor(t), Value: current.byType[t]})
	}
	slices = append(slices, domain.DistributionSlice{Label: domain.LabelCrypto, Color: domain.ColorCrypto, Value: current.crypto})
	if pending.IsPositive() {
		slices = append(slices, domain.DistributionSlice{Label: domain.LabelPending, Color: domain.ColorPending, Value: pending})
	}
	return slices
}
