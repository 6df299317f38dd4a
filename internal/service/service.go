// internal/service/service.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
)

// Repositories groups the repositories shared by the services.
type Repositories struct {
	Users          repository.UserRepository
	BankAccounts   repository.BankAccountRepository
	CryptoAccounts repository.CryptoAccountRepository
	Cryptos        repository.CryptocurrencyRepository
	CryptoOrders   repository.CryptoTransactionRepository
	Holdings       repository.HoldingRepository
	Transactions   repository.TransactionRepository
	CryptoLedger   repository.CryptoLedgerRepository
	History        repository.AccountHistoryRepository
}

// TxFuncs is the injected transaction lifecycle.
type TxFuncs struct {
	Begin    db.BeginTxFunc
	Commit   db.CommitTxFunc
	Rollback db.RollbackTxFunc
}

// DefaultTxFuncs returns the pkg/db implementations.
func DefaultTxFuncs() TxFuncs {
	return TxFuncs{Begin: db.BeginTx, Commit: db.CommitTx, Rollback: db.RollbackTx}
}

// txRunner runs a unit of work inside one database transaction.
type txRunner struct {
	dbBeginner db.DBTxBeginner
	funcs      TxFuncs
}

// inTx begins a transaction, hands fn a transactional executor, and commits when fn
// succeeds. Any error from fn rolls everything back.
func (r txRunner) inTx(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.funcs.Begin(ctx, r.dbBeginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer r.funcs.Rollback(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := r.funcs.Commit(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

// validateAmount requires a positive amount with at most scale decimal places.
func validateAmount(field string, amount decimal.Decimal, scale int32) error {
	if !amount.IsPositive() {
		return util.NewValidationError(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(scale)) {
		return util.NewValidationError(field, fmt.Sprintf("must have at most %d decimal places", scale))
	}
	return nil
}
