// internal/service/crypto_service.go
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

const recentCryptoEntries = 20

// CryptoService defines crypto account and order operations.
type CryptoService interface {
	GetOrCreateCryptoAccount(ctx context.Context, caller domain.Caller) (*domain.CryptoAccount, error)
	Overview(ctx context.Context, caller domain.Caller) (*CryptoOverview, error)
	TransferToCrypto(ctx context.Context, caller domain.Caller, bankAccountID int64, amount decimal.Decimal) (*CryptoTransferResult, error)
	TransferFromCrypto(ctx context.Context, caller domain.Caller, bankAccountID int64, amount decimal.Decimal) (*CryptoTransferResult, error)
	BuyCrypto(ctx context.Context, caller domain.Caller, cryptoID int64, amount decimal.Decimal) (*domain.CryptoTransaction, *domain.CryptoAccount, error)
	SellCrypto(ctx context.Context, caller domain.Caller, cryptoID int64, amount decimal.Decimal) (*domain.CryptoTransaction, error)
	ListOrders(ctx context.Context, caller domain.Caller) ([]domain.CryptoTransaction, error)
}

// CryptoOverview is the caller's crypto area.
type CryptoOverview struct {
	Account          *domain.CryptoAccount      `json:"account"`
	AvailableBalance decimal.Decimal            `json:"available_balance"`
	PendingTotal     decimal.Decimal            `json:"pending_total"`
	Holdings         []domain.CryptoHolding     `json:"holdings"`
	Cryptocurrencies []domain.Cryptocurrency    `json:"cryptocurrencies"`
	RecentEntries    []domain.CryptoLedgerEntry `json:"recent_entries"`
}

// CryptoTransferResult carries both legs of a bank <-> crypto movement.
type CryptoTransferResult struct {
	BankAccount   *domain.BankAccount
	CryptoAccount *domain.CryptoAccount
	BankLeg       *domain.Transaction
	CryptoLeg     *domain.CryptoLedgerEntry
}

type cryptoService struct {
	txRunner
	dbExecutor repository.DBExecutor
	repos      Repositories
	numbers    idgen.AccountNumberGenerator
}

// NewCryptoService creates a new instance of CryptoService.
func NewCryptoService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repos Repositories,
	numbers idgen.AccountNumberGenerator,
	txFuncs TxFuncs,
) CryptoService {
	return &cryptoService{
		txRunner:   txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		dbExecutor: dbExecutor,
		repos:      repos,
		numbers:    numbers,
	}
}

// GetOrCreateCryptoAccount returns the caller's crypto account, creating it on first use.
// It runs outside any ledger transaction: a lost creation race surfaces as a unique
// violation, after which the winner's row is read back.
func (s *cryptoService) GetOrCreateCryptoAccount(ctx context.Context, caller domain.Caller) (*domain.CryptoAccount, error) {
	account, err := s.repos.CryptoAccounts.GetCryptoAccountByUserID(ctx, s.dbExecutor, caller.UserID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, util.ErrAccountNotFound) {
		return nil, fmt.Errorf("crypto account: failed to load: %w", err)
	}

	account = domain.NewCryptoAccount(caller.UserID, s.numbers.CryptoAccountNumber())
	err = s.repos.CryptoAccounts.CreateCryptoAccount(ctx, s.dbExecutor, account)
	if errors.Is(err, util.ErrDuplicateEntry) {
		return s.repos.CryptoAccounts.GetCryptoAccountByUserID(ctx, s.dbExecutor, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("crypto account: failed to create: %w", err)
	}
	return account, nil
}

// Overview assembles the caller's crypto area, creating the account lazily.
func (s *cryptoService) Overview(ctx context.Context, caller domain.Caller) (*CryptoOverview, error) {
	account, err := s.GetOrCreateCryptoAccount(ctx, caller)
	if err != nil {
		return nil, err
	}

	pending, err := s.repos.CryptoOrders.SumPendingByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("crypto overview: %w", err)
	}
	holdings, err := s.repos.Holdings.ListHoldingsByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("crypto overview: %w", err)
	}
	cryptos, err := s.repos.Cryptos.ListCryptocurrencies(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("crypto overview: %w", err)
	}
	entries, err := s.repos.CryptoLedger.ListCryptoLedgerEntries(ctx, s.dbExecutor, account.ID, recentCryptoEntries)
	if err != nil {
		return nil, fmt.Errorf("crypto overview: %w", err)
	}

	return &CryptoOverview{
		Account:          account,
		AvailableBalance: account.Balance.Sub(pending),
		PendingTotal:     pending,
		Holdings:         holdings,
		Cryptocurrencies: cryptos,
		RecentEntries:    entries,
	}, nil
}

// TransferToCrypto debits a bank account and credits the caller's crypto account,
// writing a leg on each side.
func (s *cryptoService) TransferToCrypto(ctx context.Context, caller domain.Caller, bankAccountID int64, amount decimal.Decimal) (*CryptoTransferResult, error) {
	if err := validateAmount("amount", amount, domain.FiatScale); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreateCryptoAccount(ctx, caller); err != nil {
		return nil, err
	}

	result := &CryptoTransferResult{}
	err := s.inTx(ctx, "transfer to crypto", func(q repository.DBExecutor) error {
		bank, err := lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, bankAccountID)
		if err != nil {
			return err
		}
		crypto, err := s.repos.CryptoAccounts.LockCryptoAccountByUserID(ctx, q, caller.UserID)
		if err != nil {
			return err
		}

		if bank.Balance.LessThan(amount) {
			return util.ErrInsufficientFunds
		}

		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, bank.ID, amount.Neg()); err != nil {
			return fmt.Errorf("transfer to crypto: failed to debit bank account: %w", err)
		}
		if err := s.repos.CryptoAccounts.AdjustCryptoAccountBalance(ctx, q, crypto.ID, amount); err != nil {
			return fmt.Errorf("transfer to crypto: failed to credit crypto account: %w", err)
		}

		result.BankLeg = domain.NewTransaction(bank.ID, domain.TransactionTypeTransfer, amount,
			fmt.Sprintf("Transfer to crypto account %s", crypto.AccountNumber), nil)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, result.BankLeg); err != nil {
			return fmt.Errorf("transfer to crypto: failed to create bank leg: %w", err)
		}

		bankID := bank.ID
		result.CryptoLeg = domain.NewCryptoLedgerEntry(crypto.ID, domain.CryptoEntryTransferIn, amount,
			fmt.Sprintf("Transfer from bank account %s", bank.AccountNumber))
		result.CryptoLeg.RelatedBankAccountID = &bankID
		if err := s.repos.CryptoLedger.CreateCryptoLedgerEntry(ctx, q, result.CryptoLeg); err != nil {
			return fmt.Errorf("transfer to crypto: failed to create crypto leg: %w", err)
		}

		bank.Balance = bank.Balance.Sub(amount)
		crypto.Balance = crypto.Balance.Add(amount)
		result.BankAccount, result.CryptoAccount = bank, crypto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransferFromCrypto moves crypto account funds back to a bank account. Only the balance
// not tied up in pending orders can be withdrawn.
func (s *cryptoService) TransferFromCrypto(ctx context.Context, caller domain.Caller, bankAccountID int64, amount decimal.Decimal) (*CryptoTransferResult, error) {
	if err := validateAmount("amount", amount, domain.FiatScale); err != nil {
		return nil, err
	}

	result := &CryptoTransferResult{}
	err := s.inTx(ctx, "transfer from crypto", func(q repository.DBExecutor) error {
		bank, err := lockOwnedBankAccount(ctx, q, s.repos.BankAccounts, caller, bankAccountID)
		if err != nil {
			return err
		}
		crypto, err := s.repos.CryptoAccounts.LockCryptoAccountByUserID(ctx, q, caller.UserID)
		if err != nil {
			return err
		}

		pending, err := s.repos.CryptoOrders.SumPendingByUserID(ctx, q, caller.UserID)
		if err != nil {
			return fmt.Errorf("transfer from crypto: %w", err)
		}
		available := crypto.Balance.Sub(pending)
		if amount.GreaterThan(available) {
			return &util.AvailableFundsError{Available: available, Pending: pending}
		}

		if err := s.repos.CryptoAccounts.AdjustCryptoAccountBalance(ctx, q, crypto.ID, amount.Neg()); err != nil {
			return fmt.Errorf("transfer from crypto: failed to debit crypto account: %w", err)
		}
		if err := s.repos.BankAccounts.AdjustBankAccountBalance(ctx, q, bank.ID, amount); err != nil {
			return fmt.Errorf("transfer from crypto: failed to credit bank account: %w", err)
		}

		result.BankLeg = domain.NewTransaction(bank.ID, domain.TransactionTypeDeposit, amount,
			fmt.Sprintf("Transfer from crypto account %s", crypto.AccountNumber), nil)
		if err := s.repos.Transactions.CreateTransaction(ctx, q, result.BankLeg); err != nil {
			return fmt.Errorf("transfer from crypto: failed to create bank leg: %w", err)
		}

		bankID := bank.ID
		result.CryptoLeg = domain.NewCryptoLedgerEntry(crypto.ID, domain.CryptoEntryTransferOut, amount,
			fmt.Sprintf("Transfer to bank account %s", bank.AccountNumber))
		result.CryptoLeg.RelatedBankAccountID = &bankID
		if err := s.repos.CryptoLedger.CreateCryptoLedgerEntry(ctx, q, result.CryptoLeg); err != nil {
			return fmt.Errorf("transfer from crypto: failed to create crypto leg: %w", err)
		}

		bank.Balance = bank.Balance.Add(amount)
		crypto.Balance = crypto.Balance.Sub(amount)
		result.BankAccount, result.CryptoAccount = bank, crypto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BuyCrypto places a pending buy order and reserves its value from the crypto account now.
// The price is frozen on the order.
func (s *cryptoService) BuyCrypto(ctx context.Context, caller domain.Caller, cryptoID int64, amount decimal.Decimal) (*domain.CryptoTransaction, *domain.CryptoAccount, error) {
	if err := validateAmount("amount", amount, domain.CryptoScale); err != nil {
		return nil, nil, err
	}
	if _, err := s.GetOrCreateCryptoAccount(ctx, caller); err != nil {
		return nil, nil, err
	}

	var (
		order   *domain.CryptoTransaction
		account *domain.CryptoAccount
	)
	err := s.inTx(ctx, "buy crypto", func(q repository.DBExecutor) error {
		crypto, err := s.repos.Cryptos.GetCryptocurrencyByID(ctx, q, cryptoID)
		if err != nil {
			return err
		}
		account, err = s.repos.CryptoAccounts.LockCryptoAccountByUserID(ctx, q, caller.UserID)
		if err != nil {
			return err
		}

		order = domain.NewCryptoOrder(caller.UserID, crypto.ID, domain.CryptoTransactionBuy, amount, crypto.CurrentPrice)
		if !order.TotalValue.IsPositive() {
			return util.NewValidationError("amount", "order value must be greater than zero")
		}
		if account.Balance.LessThan(order.TotalValue) {
			return util.ErrInsufficientFunds
		}

		if err := s.repos.CryptoAccounts.AdjustCryptoAccountBalance(ctx, q, account.ID, order.TotalValue.Neg()); err != nil {
			return fmt.Errorf("buy crypto: failed to reserve funds: %w", err)
		}
		if err := s.repos.CryptoOrders.CreateCryptoTransaction(ctx, q, order); err != nil {
			return fmt.Errorf("buy crypto: failed to create order: %w", err)
		}

		orderID := order.ID
		entry := domain.NewCryptoLedgerEntry(account.ID, domain.CryptoEntryOrderReserve, order.TotalValue,
			fmt.Sprintf("Buy order #%d for %s %s", order.ID, amount.String(), crypto.Symbol))
		entry.CryptoTransactionID = &orderID
		if err := s.repos.CryptoLedger.CreateCryptoLedgerEntry(ctx, q, entry); err != nil {
			return fmt.Errorf("buy crypto: failed to create crypto leg: %w", err)
		}

		account.Balance = account.Balance.Sub(order.TotalValue)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, account, nil
}

// SellCrypto places a pending sell order. The quantity is checked against and reserved
// from the caller's holding; the proceeds are credited on approval.
func (s *cryptoService) SellCrypto(ctx context.Context, caller domain.Caller, cryptoID int64, amount decimal.Decimal) (*domain.CryptoTransaction, error) {
	if err := validateAmount("amount", amount, domain.CryptoScale); err != nil {
		return nil, err
	}

	var order *domain.CryptoTransaction
	err := s.inTx(ctx, "sell crypto", func(q repository.DBExecutor) error {
		crypto, err := s.repos.Cryptos.GetCryptocurrencyByID(ctx, q, cryptoID)
		if err != nil {
			return err
		}
		holding, err := s.repos.Holdings.LockHolding(ctx, q, caller.UserID, crypto.ID)
		if err != nil {
			return err
		}
		if holding.Quantity.LessThan(amount) {
			return util.ErrInsufficientHoldings
		}

		order = domain.NewCryptoOrder(caller.UserID, crypto.ID, domain.CryptoTransactionSell, amount, crypto.CurrentPrice)
		// Proceeds are credited to the crypto account on approval and must fit its balance column.
		if order.TotalValue.GreaterThanOrEqual(domain.MaxCryptoValue) {
			return util.NewValidationError("amount", "order value is too large")
		}

		if err := s.repos.Holdings.AdjustHolding(ctx, q, caller.UserID, crypto.ID, amount.Neg()); err != nil {
			return fmt.Errorf("sell crypto: failed to reserve holding: %w", err)
		}
		if err := s.repos.CryptoOrders.CreateCryptoTransaction(ctx, q, order); err != nil {
			return fmt.Errorf("sell crypto: failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *cryptoService) ListOrders(ctx context.Context, caller domain.Caller) ([]domain.CryptoTransaction, error) {
	orders, err := s.repos.CryptoOrders.ListCryptoTransactionsByUserID(ctx, s.dbExecutor, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list crypto orders: %w", err)
	}
	return orders, nil
}
