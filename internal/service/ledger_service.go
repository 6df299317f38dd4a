// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
	"finflow-ledger/pkg/idgen"
)

// LedgerService defines bank account operations.
type LedgerService interface {
	OpenBankAccount(ctx context.Context, caller domain.Caller, accountType domain.AccountType) (*domain.BankAccount, error)
	ListBankAccounts(ctx context.Context, caller domain.Caller) ([]domain.BankAccount, error)
	Deposit(ctx context.Context, caller domain.Caller, accountID int64, amount decimal.Decimal, description string) (*domain.BankAccount, *domain.Transaction, error)
	Withdraw(ctx context.Context, caller domain.Caller, accountID int64, amount decimal.Decimal, description string) (*domain.BankAccount, *domain.Transaction, error)
	Transfer(ctx context.Context, caller domain.Caller, fromAccountID int64, toAccountNumber string, amount decimal.Decimal, description string) (*TransferResult, error)
	GetTransactionHistory(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.Transaction, int64, error)
}

// TransferResult is the outcome of a bank-to-bank transfer as seen by the sender.
type TransferResult struct {
	Source   *domain.BankAccount
	Outgoing *domain.Transaction
	Incoming *domain.Transaction
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	txRunner
	dbExecutor repository.DBExecutor // non-transactional reads
	repos      Repositories
	numbers    idgen.AccountNumberGenerator
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repos Repositories,
	numbers idgen.AccountNumberGenerator,
	txFuncs TxFuncs,
) LedgerService {
	return &ledgerService{
		txRunner:   txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		dbExecutor: dbExecutor,
		repos:      repos,
		numbers:    numbers,
	}
}

// OpenBankAccount creates an empty account of the given type for the caller.
func (s *ledgerService) OpenBankAccount(ctx context.Context, caller domain.Caller, accountType domain.AccountType) (*domain.BankAccount, error) {
	if !accountType.Valid() {
		return nil, util.NewValidationError("account_type", "must be one of checking, savings, business")
	}

	account := domain.NewBankAccount(caller.UserID, accountType, s.numbers.BankAccountNumber())
	if err := s.repos.BankAccounts.CreateBankAccount(ctx, s.dbExecutor, account); err != nil {
		return nil, fmt.Errorf("open bank account: %w", err)
	}
	return account, nil
}

// ListBankAccounts returns the caller's bank accounts.
func (s *ledgerService) ListBankAccounts(ctx context.Context, caller domain.Caller) ([]domain.BankAccount, error) {
	accounts, err := s.repos.BankAccounts.ListBankAccountsByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return accounts, nil
}

// lockOwnedBankAccount locks the account row and hides accounts the caller does not own.
func lockOwnedBankAccount(ctx context.Context, q repository.DBExecutor, accounts repository.BankAccountRepository, caller domain.Caller, accountID int64) (*domain.BankAccount, error) {
	account, err := accounts.LockBankAccount(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != caller.UserID {
		return nil, util.ErrAccountNotFound
	}
	return account, nil
}

// Deposit adds money to one of the caller's accounts.
func (s *ledgerService) Deposit(ctx context.Context, caller domain.Caller, accountID int64, amount decimal.Decimal, description string) (*domain.BankAccount, *domain.Transaction, error) {
	if err := validateAmount("amount", amount, domain.FiatScale); err != nil {
		return nil, nil, err
	}

	var (
		account     *domain.BankAccount
		transaction *domain.Transaction
	)
	err := s.inTx(ctx, "deposit", func(q repository.DBExecutor) error {
		var err error
		account, err = lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, accountID)
		if err != nil {
			return err
		}

		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, account.ID, amount); err != nil {
			return fmt.Errorf("deposit: failed to update balance: %w", err)
		}

		transaction = domain.NewTransaction(account.ID, domain.TransactionTypeDeposit, amount, description, nil)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, transaction); err != nil {
			return fmt.Errorf("deposit: failed to create transaction: %w", err)
		}

		account.Balance = account.Balance.Add(amount)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, transaction, nil
}

// Withdraw removes money from one of the caller's accounts. The balance never goes negative.
func (s *ledgerService) Withdraw(ctx context.Context, caller domain.Caller, accountID int64, amount decimal.Decimal, description string) (*domain.BankAccount, *domain.Transaction, error) {
	if err := validateAmount("amount", amount, domain.FiatScale); err != nil {
		return nil, nil, err
	}

	var (
		account     *domain.BankAccount
		transaction *domain.Transaction
	)
	err := s.inTx(ctx, "withdraw", func(q repository.DBExecutor) error {
		var err error
		account, err = lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, accountID)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(amount) {
			return util.ErrInsufficientFunds
		}

		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, account.ID, amount.Neg()); err != nil {
			return fmt.Errorf("withdraw: failed to update balance: %w", err)
		}

		transaction = domain.NewTransaction(account.ID, domain.TransactionTypeWithdrawal, amount, description, nil)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, transaction); err != nil {
			return fmt.Errorf("withdraw: failed to create transaction: %w", err)
		}

		account.Balance = account.Balance.Sub(amount)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, transaction, nil
}

// Transfer moves money from one of the caller's accounts to any account identified by number.
// Both rows are locked in ascending id order and two legs are written, each pointing at the other account.
func (s *ledgerService) Transfer(ctx context.Context, caller domain.Caller, fromAccountID int64, toAccountNumber string, amount decimal.Decimal, description string) (*TransferResult, error) {
	if err := validateAmount("amount", amount, domain.FiatScale); err != nil {
		return nil, err
	}
	if toAccountNumber == "" {
		return nil, util.NewValidationError("to_account_number", "is required")
	}

	senderName, err := s.senderName(ctx, caller)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{}
	err = s.inTx(ctx, "transfer", func(q repository.DBExecutor) error {
		destination, err := s.repos.BankAccounts.GetBankAccountByNumber(ctx, q, toAccountNumber)
		if err != nil {
			if errors.Is(err, util.ErrAccountNotFound) {
				return util.ErrDestinationNotFound
			}
			return fmt.Errorf("transfer: failed to resolve destination: %w", err)
		}
		if destination.ID == fromAccountID {
			// Ownership first so a foreign account number is indistinguishable from a missing one.
			if _, err := lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, fromAccountID); err != nil {
				return err
			}
			return util.ErrSameAccountTransfer
		}

		var source *domain.BankAccount
		for _, id := range lockOrder(fromAccountID, destination.ID) {
			if id == fromAccountID {
				source, err = lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, id)
			} else {
				destination, err = s.repos.BankAccounts.LockBankAccount(ctx, q, id)
			}
			if err != nil {
				return err
			}
		}

		if source.Balance.LessThan(amount) {
			return util.ErrInsufficientFunds
		}

		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, source.ID, amount.Neg()); err != nil {
			return fmt.Errorf("transfer: failed to debit source: %w", err)
		}
		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, destination.ID, amount); err != nil {
			return fmt.Errorf("transfer: failed to credit destination: %w", err)
		}

		sourceID, destinationID := source.ID, destination.ID
		result.Outgoing = domain.NewTransaction(sourceID, domain.TransactionTypeTransfer, amount, description, &destinationID)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, result.Outgoing); err != nil {
			return fmt.Errorf("transfer: failed to create outgoing leg: %w", err)
		}
		result.Incoming = domain.NewTransaction(destinationID, domain.TransactionTypeTransfer, amount,
			fmt.Sprintf("Incoming transfer from %s", senderName), &sourceID)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, result.Incoming); err != nil {
			return fmt.Errorf("transfer: failed to create incoming leg: %w", err)
		}

		source.Balance = source.Balance.Sub(amount)
		result.Source = source
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ledgerService) senderName(ctx context.Context, caller domain.Caller) (string, error) {
	if caller.Username != "" {
		return caller.Username, nil
	}
	user, err := s.repos.Users.GetUserByID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return "", fmt.Errorf("transfer: failed to load sender: %w", err)
	}
	return user.Username, nil
}

// lockOrder returns the two ids ascending, the global lock order for bank rows.
func lockOrder(a, b int64) []int64 {
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}

// GetTransactionHistory lists the legs of all of the caller's accounts, newest first.
func (s *ledgerService) GetTransactionHistory(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions, total, err := s.repos.Transactions.ListTransactionsByUserID(ctx, s.dbExecutor, caller.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, total, nil
}
