// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController. It embeds
// MockDBExecutor so it also satisfies repository.DBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// txFuncsFor routes the transaction lifecycle through tx.
func txFuncsFor(tx *MockTxController) TxFuncs {
	return TxFuncs{
		Begin: func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return tx, nil
		},
		Commit: func(db.TxController) error {
			return tx.Commit()
		},
		Rollback: func(db.TxController) {
			_ = tx.Rollback()
		},
	}
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, q repository.DBExecutor, user *domain.User) (bool, error) {
	args := m.Called(ctx, q, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListUserIDs(ctx context.Context, q repository.DBExecutor) ([]int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockBankAccountRepository is a mock implementation of repository.BankAccountRepository.
type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) CreateBankAccount(ctx context.Context, q repository.DBExecutor, account *domain.BankAccount) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockBankAccountRepository) GetBankAccountByNumber(ctx context.Context, q repository.DBExecutor, accountNumber string) (*domain.BankAccount, error) {
	args := m.Called(ctx, q, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) LockBankAccount(ctx context.Context, q repository.DBExecutor, id int64) (*domain.BankAccount, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) ListBankAccountsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.BankAccount, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) AdjustBankAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, id, delta)
	return args.Error(0)
}

// MockCryptoAccountRepository is a mock implementation of repository.CryptoAccountRepository.
type MockCryptoAccountRepository struct {
	mock.Mock
}

func (m *MockCryptoAccountRepository) CreateCryptoAccount(ctx context.Context, q repository.DBExecutor, account *domain.CryptoAccount) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockCryptoAccountRepository) GetCryptoAccountByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.CryptoAccount, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CryptoAccount), args.Error(1)
}

func (m *MockCryptoAccountRepository) LockCryptoAccountByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.CryptoAccount, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CryptoAccount), args.Error(1)
}

func (m *MockCryptoAccountRepository) AdjustCryptoAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, id, delta)
	return args.Error(0)
}

// MockCryptocurrencyRepository is a mock implementation of repository.CryptocurrencyRepository.
type MockCryptocurrencyRepository struct {
	mock.Mock
}

func (m *MockCryptocurrencyRepository) CreateCryptocurrency(ctx context.Context, q repository.DBExecutor, crypto *domain.Cryptocurrency) error {
	args := m.Called(ctx, q, crypto)
	return args.Error(0)
}

func (m *MockCryptocurrencyRepository) GetCryptocurrencyByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Cryptocurrency, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cryptocurrency), args.Error(1)
}

func (m *MockCryptocurrencyRepository) ListCryptocurrencies(ctx context.Context, q repository.DBExecutor) ([]domain.Cryptocurrency, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Cryptocurrency), args.Error(1)
}

func (m *MockCryptocurrencyRepository) ScaleAllPrices(ctx context.Context, q repository.DBExecutor, factor decimal.Decimal, at time.Time) ([]domain.Cryptocurrency, error) {
	args := m.Called(ctx, q, factor, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Cryptocurrency), args.Error(1)
}

// MockCryptoTransactionRepository is a mock implementation of repository.CryptoTransactionRepository.
type MockCryptoTransactionRepository struct {
	mock.Mock
}

func (m *MockCryptoTransactionRepository) CreateCryptoTransaction(ctx context.Context, q repository.DBExecutor, order *domain.CryptoTransaction) error {
	args := m.Called(ctx, q, order)
	return args.Error(0)
}

func (m *MockCryptoTransactionRepository) GetCryptoTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.CryptoTransaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CryptoTransaction), args.Error(1)
}

func (m *MockCryptoTransactionRepository) LockCryptoTransaction(ctx context.Context, q repository.DBExecutor, id int64) (*domain.CryptoTransaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CryptoTransaction), args.Error(1)
}

func (m *MockCryptoTransactionRepository) ListCryptoTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.CryptoTransaction, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CryptoTransaction), args.Error(1)
}

func (m *MockCryptoTransactionRepository) ListPendingCryptoTransactions(ctx context.Context, q repository.DBExecutor) ([]domain.CryptoTransaction, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CryptoTransaction), args.Error(1)
}

func (m *MockCryptoTransactionRepository) SumPendingByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCryptoTransactionRepository) UpdateCryptoTransactionStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CryptoTransactionStatus, decidedAt time.Time) error {
	args := m.Called(ctx, q, id, status, decidedAt)
	return args.Error(0)
}

// MockHoldingRepository is a mock implementation of repository.HoldingRepository.
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) LockHolding(ctx context.Context, q repository.DBExecutor, userID, cryptoID int64) (*domain.CryptoHolding, error) {
	args := m.Called(ctx, q, userID, cryptoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CryptoHolding), args.Error(1)
}

func (m *MockHoldingRepository) ListHoldingsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.CryptoHolding, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CryptoHolding), args.Error(1)
}

func (m *MockHoldingRepository) AdjustHolding(ctx context.Context, q repository.DBExecutor, userID, cryptoID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, userID, cryptoID, delta)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

// MockCryptoLedgerRepository is a mock implementation of repository.CryptoLedgerRepository.
type MockCryptoLedgerRepository struct {
	mock.Mock
}

func (m *MockCryptoLedgerRepository) CreateCryptoLedgerEntry(ctx context.Context, q repository.DBExecutor, entry *domain.CryptoLedgerEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

func (m *MockCryptoLedgerRepository) ListCryptoLedgerEntries(ctx context.Context, q repository.DBExecutor, cryptoAccountID int64, limit int) ([]domain.CryptoLedgerEntry, error) {
	args := m.Called(ctx, q, cryptoAccountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CryptoLedgerEntry), args.Error(1)
}

// MockAccountHistoryRepository is a mock implementation of repository.AccountHistoryRepository.
type MockAccountHistoryRepository struct {
	mock.Mock
}

func (m *MockAccountHistoryRepository) CreateSnapshot(ctx context.Context, q repository.DBExecutor, snapshot *domain.AccountHistory) error {
	args := m.Called(ctx, q, snapshot)
	return args.Error(0)
}

func (m *MockAccountHistoryRepository) ListSnapshotsSince(ctx context.Context, q repository.DBExecutor, userID int64, since time.Time) ([]domain.AccountHistory, error) {
	args := m.Called(ctx, q, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountHistory), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}

// fixedNumbers hands out predictable account numbers.
type fixedNumbers struct{}

func (fixedNumbers) BankAccountNumber() string   { return "1000000001" }
func (fixedNumbers) CryptoAccountNumber() string { return "CRYPTO1000000002" }

// repoMocks bundles one mock per repository.
type repoMocks struct {
	users          *MockUserRepository
	bankAccounts   *MockBankAccountRepository
	cryptoAccounts *MockCryptoAccountRepository
	cryptos        *MockCryptocurrencyRepository
	cryptoOrders   *MockCryptoTransactionRepository
	holdings       *MockHoldingRepository
	transactions   *MockTransactionRepository
	cryptoLedger   *MockCryptoLedgerRepository
	history        *MockAccountHistoryRepository
}

func newRepoMocks() *repoMocks {
	return &repoMocks{
		users:          new(MockUserRepository),
		bankAccounts:   new(MockBankAccountRepository),
		cryptoAccounts: new(MockCryptoAccountRepository),
		cryptos:        new(MockCryptocurrencyRepository),
		cryptoOrders:   new(MockCryptoTransactionRepository),
		holdings:       new(MockHoldingRepository),
		transactions:   new(MockTransactionRepository),
		cryptoLedger:   new(MockCryptoLedgerRepository),
		history:        new(MockAccountHistoryRepository),
	}
}

func (r *repoMocks) repositories() Repositories {
	return Repositories{
		Users:          r.users,
		BankAccounts:   r.bankAccounts,
		CryptoAccounts: r.cryptoAccounts,
		Cryptos:        r.cryptos,
		CryptoOrders:   r.cryptoOrders,
		Holdings:       r.holdings,
		Transactions:   r.transactions,
		CryptoLedger:   r.cryptoLedger,
		History:        r.history,
	}
}

func (r *repoMocks) objects() []interface{} {
	return []interface{}{r.users, r.bankAccounts, r.cryptoAccounts, r.cryptos, r.cryptoOrders, r.holdings, r.transactions, r.cryptoLedger, r.history}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value rather than representation.
func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
