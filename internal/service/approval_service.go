// internal/service/approval_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
	"finflow-ledger/pkg/events"
)

// ApprovalService moves pending crypto orders to a terminal status. Superusers only.
type ApprovalService interface {
	ListPending(ctx context.Context, caller domain.Caller) ([]domain.CryptoTransaction, error)
	Approve(ctx context.Context, caller domain.Caller, orderID int64) (*domain.CryptoTransaction, error)
	Reject(ctx context.Context, caller domain.Caller, orderID int64) (*domain.CryptoTransaction, error)
}

type approvalService struct {
	txRunner
	dbExecutor repository.DBExecutor
	repos      Repositories
	publisher  events.Publisher
	clock      util.Clock
	logger     *slog.Logger
}

// NewApprovalService creates a new instance of ApprovalService.
func NewApprovalService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repos Repositories,
	publisher events.Publisher,
	clock util.Clock,
	logger *slog.Logger,
	txFuncs TxFuncs,
) ApprovalService {
	return &approvalService{
		txRunner:   txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		dbExecutor: dbExecutor,
		repos:      repos,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}
}

// ListPending returns every pending order, oldest first.
func (s *approvalService) ListPending(ctx context.Context, caller domain.Caller) ([]domain.CryptoTransaction, error) {
	if !caller.IsSuperuser {
		return nil, util.ErrForbidden
	}
	orders, err := s.repos.CryptoOrders.ListPendingCryptoTransactions(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	return orders, nil
}

// Approve completes an order. A buy credits the bought quantity to the holding (its funds
// were reserved at placement); a sell credits the proceeds to the crypto account.
func (s *approvalService) Approve(ctx context.Context, caller domain.Caller, orderID int64) (*domain.CryptoTransaction, error) {
	return s.decide(ctx, caller, orderID, domain.CryptoStatusCompleted)
}

// Reject closes an order and releases its reservation: a buy refunds the reserved funds,
// a sell returns the reserved quantity to the holding.
func (s *approvalService) Reject(ctx context.Context, caller domain.Caller, orderID int64) (*domain.CryptoTransaction, error) {
	return s.decide(ctx, caller, orderID, domain.CryptoStatusRejected)
}

func (s *approvalService) decide(ctx context.Context, caller domain.Caller, orderID int64, next domain.CryptoTransactionStatus) (*domain.CryptoTransaction, error) {
	if !caller.IsSuperuser {
		return nil, util.ErrForbidden
	}

	op := "approve order"
	if next == domain.CryptoStatusRejected {
		op = "reject order"
	}

	var order *domain.CryptoTransaction
	err := s.inTx(ctx, op, func(q repository.DBExecutor) error {
		peek, err := s.repos.CryptoOrders.GetCryptoTransactionByID(ctx, q, orderID)
		if err != nil {
			return err
		}

		// Lock order: crypto account, holding, then the order row.
		var account *domain.CryptoAccount
		switch s.effect(peek.Type, next) {
		case effectCreditAccount:
			if account, err = s.repos.CryptoAccounts.LockCryptoAccountByUserID(ctx, q, peek.UserID); err != nil {
				return err
			}
		case effectCreditHolding:
			if _, err = s.repos.Holdings.LockHolding(ctx, q, peek.UserID, peek.CryptoID); err != nil {
				return err
			}
		}

		order, err = s.repos.CryptoOrders.LockCryptoTransaction(ctx, q, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(next) {
			return util.ErrOrderNotPending
		}

		if err := s.apply(ctx, q, order, account, next); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		decidedAt := s.clock.NowUTC()
		if err := s.repos.CryptoOrders.UpdateCryptoTransactionStatus(ctx, q, order.ID, next, decidedAt); err != nil {
			return err
		}
		order.Status = next
		order.DecidedAt = &decidedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDecision(ctx, caller, order)
	return order, nil
}

type balanceEffect int

const (
	effectNone balanceEffect = iota
	effectCreditAccount
	effectCreditHolding
)

// effect tells which balance a decision touches.
func (s *approvalService) effect(orderType domain.CryptoTransactionType, next domain.CryptoTransactionStatus) balanceEffect {
	switch {
	case orderType == domain.CryptoTransactionBuy && next == domain.CryptoStatusCompleted:
		return effectCreditHolding
	case orderType == domain.CryptoTransactionBuy && next == domain.CryptoStatusRejected:
		return effectCreditAccount
	case orderType == domain.CryptoTransactionSell && next == domain.CryptoStatusCompleted:
		return effectCreditAccount
	case orderType == domain.CryptoTransactionSell && next == domain.CryptoStatusRejected:
		return effectCreditHolding
	}
	return effectNone
}

func (s *approvalService) apply(ctx context.Context, q repository.DBExecutor, order *domain.CryptoTransaction, account *domain.CryptoAccount, next domain.CryptoTransactionStatus) error {
	switch s.effect(order.Type, next) {
	case effectCreditHolding:
		if err := s.repos.Holdings.AdjustHolding(ctx, q, order.UserID, order.CryptoID, order.Amount); err != nil {
			return err
		}
	case effectCreditAccount:
		if err := s.repos.CryptoAccounts.AdjustCryptoAccountBalance(ctx, q, account.ID, order.TotalValue); err != nil {
			return err
		}
		entryType, description := domain.CryptoEntryOrderSettle, fmt.Sprintf("Sell order #%d settled", order.ID)
		if order.Type == domain.CryptoTransactionBuy {
			entryType, description = domain.CryptoEntryOrderRefund, fmt.Sprintf("Buy order #%d rejected, funds returned", order.ID)
		}
		orderID := order.ID
		entry := domain.NewCryptoLedgerEntry(account.ID, entryType, order.TotalValue, description)
		entry.CryptoTransactionID = &orderID
		if err := s.repos.CryptoLedger.CreateCryptoLedgerEntry(ctx, q, entry); err != nil {
			return err
		}
	}
	return nil
}

// publishDecision emits the decision after commit. A broker failure is logged only.
func (s *approvalService) publishDecision(ctx context.Context, caller domain.Caller, order *domain.CryptoTransaction) {
	routingKey := events.RoutingOrderCompleted
	if order.Status == domain.CryptoStatusRejected {
		routingKey = events.RoutingOrderRejected
	}
	event := events.OrderDecidedEvent{
		EventID:    uuid.New(),
		OrderID:    order.ID,
		UserID:     order.UserID,
		CryptoID:   order.CryptoID,
		Type:       string(order.Type),
		Status:     string(order.Status),
		Amount:     order.Amount,
		TotalValue: order.TotalValue,
		DecidedBy:  caller.UserID,
		Timestamp:  s.clock.NowUTC(),
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.logger.Error("failed to publish order decision", "order_id", order.ID, "status", order.Status, "error", err)
		return
	}
	s.logger.Info("order decided", "order_id", order.ID, "status", order.Status, "decided_by", caller.UserID)
}
