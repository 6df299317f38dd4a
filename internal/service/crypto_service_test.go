// internal/service/crypto_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/util"
)

func newCryptoFixture() (CryptoService, *repoMocks, *MockTxController) {
	repos := newRepoMocks()
	tx := new(MockTxController)
	svc := NewCryptoService(new(MockDBBeginner), new(MockDBExecutor), repos.repositories(), fixedNumbers{}, txFuncsFor(tx))
	return svc, repos, tx
}

func aliceCrypto(balance string) *domain.CryptoAccount {
	return &domain.CryptoAccount{ID: 5, UserID: alice.UserID, AccountNumber: "CRYPTO55", Balance: dec(balance)}
}

func TestGetOrCreateCryptoAccount(t *testing.T) {
	t.Run("Existing", func(t *testing.T) {
		svc, repos, _ := newCryptoFixture()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("1"), nil).Once()

		account, err := svc.GetOrCreateCryptoAccount(context.Background(), alice)

		require.NoError(t, err)
		assert.Equal(t, int64(5), account.ID)
		repos.cryptoAccounts.AssertNotCalled(t, "CreateCryptoAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CreatedOnFirstUse", func(t *testing.T) {
		svc, repos, _ := newCryptoFixture()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(nil, util.ErrAccountNotFound).Once()
		repos.cryptoAccounts.On("CreateCryptoAccount", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.CryptoAccount")).Return(nil).Once()

		account, err := svc.GetOrCreateCryptoAccount(context.Background(), alice)

		require.NoError(t, err)
		assert.Equal(t, "CRYPTO1000000002", account.AccountNumber)
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("LostCreationRaceReadsWinner", func(t *testing.T) {
		svc, repos, _ := newCryptoFixture()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(nil, util.ErrAccountNotFound).Once()
		repos.cryptoAccounts.On("CreateCryptoAccount", mock.Anything, mock.Anything, mock.Anything).Return(util.ErrDuplicateEntry).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("0"), nil).Once()

		account, err := svc.GetOrCreateCryptoAccount(context.Background(), alice)

		require.NoError(t, err)
		assert.Equal(t, int64(5), account.ID)
		mock.AssertExpectationsForObjects(t, repos.objects()...)
	})
}

func TestTransferToCrypto(t *testing.T) {
	t.Run("MovesFundsWithOneLegPerSide", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		bank := &domain.BankAccount{ID: 10, UserID: alice.UserID, AccountNumber: "1010", Balance: dec("1000")}
		crypto := aliceCrypto("0")

		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(crypto, nil).Once()
		repos.bankAccounts.On("LockBankAccount", mock.Anything, mock.Anything, int64(10)).Return(bank, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(crypto, nil).Once()
		repos.bankAccounts.On("AdjustBankAccountBalance", mock.Anything, mock.Anything, int64(10), decEq("-500")).Return(nil).Once()
		repos.cryptoAccounts.On("AdjustCryptoAccountBalance", mock.Anything, mock.Anything, int64(5), decEq("500")).Return(nil).Once()
		repos.transactions.On("CreateTransaction", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		repos.cryptoLedger.On("CreateCryptoLedgerEntry", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.CryptoLedgerEntry")).Return(nil).Once()

		result, err := svc.TransferToCrypto(context.Background(), alice, 10, dec("500"))

		require.NoError(t, err)
		assert.True(t, result.BankAccount.Balance.Equal(dec("500")))
		assert.True(t, result.CryptoAccount.Balance.Equal(dec("500")))
		assert.Equal(t, domain.TransactionTypeTransfer, result.BankLeg.Type)
		assert.Equal(t, "Transfer to crypto account CRYPTO55", result.BankLeg.Description)
		assert.Equal(t, domain.CryptoEntryTransferIn, result.CryptoLeg.Type)
		assert.Equal(t, "Transfer from bank account 1010", result.CryptoLeg.Description)
		assert.Equal(t, int64(10), *result.CryptoLeg.RelatedBankAccountID)
		mock.AssertExpectationsForObjects(t, append(repos.objects(), tx)...)
	})

	t.Run("InsufficientBankFunds", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("0"), nil).Once()
		repos.bankAccounts.On("LockBankAccount", mock.Anything, mock.Anything, int64(10)).
			Return(&domain.BankAccount{ID: 10, UserID: alice.UserID, Balance: dec("100")}, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("0"), nil).Once()

		_, err := svc.TransferToCrypto(context.Background(), alice, 10, dec("500"))

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		tx.AssertNotCalled(t, "Commit")
	})
}

func TestTransferFromCrypto(t *testing.T) {
	t.Run("PendingOrdersReduceAvailable", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		repos.bankAccounts.On("LockBankAccount", mock.Anything, mock.Anything, int64(10)).
			Return(&domain.BankAccount{ID: 10, UserID: alice.UserID}, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("1000"), nil).Once()
		repos.cryptoOrders.On("SumPendingByUserID", mock.Anything, mock.Anything, alice.UserID).Return(dec("400"), nil).Once()

		_, err := svc.TransferFromCrypto(context.Background(), alice, 10, dec("700"))

		require.Error(t, err)
		assert.ErrorIs(t, err, util.ErrInsufficientAvailableFunds)
		var fundsErr *util.AvailableFundsError
		require.True(t, errors.As(err, &fundsErr))
		assert.Equal(t, "Insufficient available funds. You have $600.00 available (excluding $400.00 in pending orders)", err.Error())
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("WithinAvailable", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		bank := &domain.BankAccount{ID: 10, UserID: alice.UserID, AccountNumber: "1010", Balance: dec("0")}
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.bankAccounts.On("LockBankAccount", mock.Anything, mock.Anything, int64(10)).Return(bank, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("1000"), nil).Once()
		repos.cryptoOrders.On("SumPendingByUserID", mock.Anything, mock.Anything, alice.UserID).Return(dec("400"), nil).Once()
		repos.cryptoAccounts.On("AdjustCryptoAccountBalance", mock.Anything, mock.Anything, int64(5), decEq("-600")).Return(nil).Once()
		repos.bankAccounts.On("AdjustBankAccountBalance", mock.Anything, mock.Anything, int64(10), decEq("600")).Return(nil).Once()
		repos.transactions.On("CreateTransaction", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		repos.cryptoLedger.On("CreateCryptoLedgerEntry", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.CryptoLedgerEntry")).Return(nil).Once()

		result, err := svc.TransferFromCrypto(context.Background(), alice, 10, dec("600"))

		require.NoError(t, err)
		assert.Equal(t, domain.TransactionTypeDeposit, result.BankLeg.Type)
		assert.Equal(t, "Transfer from crypto account CRYPTO55", result.BankLeg.Description)
		assert.Equal(t, domain.CryptoEntryTransferOut, result.CryptoLeg.Type)
		assert.Equal(t, "Transfer to bank account 1010", result.CryptoLeg.Description)
		assert.True(t, result.CryptoAccount.Balance.Equal(dec("400")))
		mock.AssertExpectationsForObjects(t, append(repos.objects(), tx)...)
	})
}

func TestBuyCrypto(t *testing.T) {
	btc := &domain.Cryptocurrency{ID: 1, Name: "Bitcoin", Symbol: "BTC", CurrentPrice: dec("50000")}

	t.Run("ReservesOrderValue", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("60000"), nil).Once()
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(1)).Return(btc, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("60000"), nil).Once()
		repos.cryptoAccounts.On("AdjustCryptoAccountBalance", mock.Anything, mock.Anything, int64(5), decEq("-50000")).Return(nil).Once()
		repos.cryptoOrders.On("CreateCryptoTransaction", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.CryptoTransaction")).
			Run(func(args mock.Arguments) { args.Get(2).(*domain.CryptoTransaction).ID = 42 }).Return(nil).Once()
		repos.cryptoLedger.On("CreateCryptoLedgerEntry", mock.Anything, mock.Anything, mock.MatchedBy(func(e *domain.CryptoLedgerEntry) bool {
			return e.Type == domain.CryptoEntryOrderReserve && e.CryptoTransactionID != nil && *e.CryptoTransactionID == 42
		})).Return(nil).Once()

		order, account, err := svc.BuyCrypto(context.Background(), alice, 1, dec("1"))

		require.NoError(t, err)
		assert.Equal(t, domain.CryptoStatusPending, order.Status)
		assert.Equal(t, domain.CryptoTransactionBuy, order.Type)
		assert.True(t, order.PriceAtTransaction.Equal(dec("50000")))
		assert.True(t, order.TotalValue.Equal(dec("50000")))
		assert.True(t, account.Balance.Equal(dec("10000")))
		mock.AssertExpectationsForObjects(t, append(repos.objects(), tx)...)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("100"), nil).Once()
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(1)).Return(btc, nil).Once()
		repos.cryptoAccounts.On("LockCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("100"), nil).Once()

		_, _, err := svc.BuyCrypto(context.Background(), alice, 1, dec("1"))

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		repos.cryptoOrders.AssertNotCalled(t, "CreateCryptoTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownCryptocurrency", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("100"), nil).Once()
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(9)).Return(nil, util.ErrCryptoNotFound).Once()

		_, _, err := svc.BuyCrypto(context.Background(), alice, 9, dec("1"))

		assert.ErrorIs(t, err, util.ErrCryptoNotFound)
	})
}

func TestSellCrypto(t *testing.T) {
	btc := &domain.Cryptocurrency{ID: 1, Symbol: "BTC", CurrentPrice: dec("50000")}

	t.Run("ReservesHolding", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(1)).Return(btc, nil).Once()
		repos.holdings.On("LockHolding", mock.Anything, mock.Anything, alice.UserID, int64(1)).
			Return(&domain.CryptoHolding{UserID: alice.UserID, CryptoID: 1, Quantity: dec("2")}, nil).Once()
		repos.holdings.On("AdjustHolding", mock.Anything, mock.Anything, alice.UserID, int64(1), decEq("-0.5")).Return(nil).Once()
		repos.cryptoOrders.On("CreateCryptoTransaction", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.CryptoTransaction")).Return(nil).Once()

		order, err := svc.SellCrypto(context.Background(), alice, 1, dec("0.5"))

		require.NoError(t, err)
		assert.Equal(t, domain.CryptoTransactionSell, order.Type)
		assert.True(t, order.TotalValue.Equal(dec("25000")))
		mock.AssertExpectationsForObjects(t, append(repos.objects(), tx)...)
	})

	t.Run("InsufficientHoldings", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(1)).Return(btc, nil).Once()
		repos.holdings.On("LockHolding", mock.Anything, mock.Anything, alice.UserID, int64(1)).
			Return(&domain.CryptoHolding{UserID: alice.UserID, CryptoID: 1, Quantity: dec("0")}, nil).Once()

		_, err := svc.SellCrypto(context.Background(), alice, 1, dec("0.5"))

		assert.ErrorIs(t, err, util.ErrInsufficientHoldings)
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("ProceedsTooLarge", func(t *testing.T) {
		svc, repos, tx := newCryptoFixture()
		tx.On("Rollback").Return(nil).Once()
		pricey := &domain.Cryptocurrency{ID: 2, Symbol: "MOON", CurrentPrice: dec("900000000000")}
		repos.cryptos.On("GetCryptocurrencyByID", mock.Anything, mock.Anything, int64(2)).Return(pricey, nil).Once()
		repos.holdings.On("LockHolding", mock.Anything, mock.Anything, alice.UserID, int64(2)).
			Return(&domain.CryptoHolding{UserID: alice.UserID, CryptoID: 2, Quantity: dec("5")}, nil).Once()

		_, err := svc.SellCrypto(context.Background(), alice, 2, dec("2"))

		var vErr *util.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)
		repos.holdings.AssertNotCalled(t, "AdjustHolding", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repos.cryptoOrders.AssertNotCalled(t, "CreateCryptoTransaction", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCryptoOverview(t *testing.T) {
	svc, repos, _ := newCryptoFixture()
	repos.cryptoAccounts.On("GetCryptoAccountByUserID", mock.Anything, mock.Anything, alice.UserID).Return(aliceCrypto("1000"), nil).Once()
	repos.cryptoOrders.On("SumPendingByUserID", mock.Anything, mock.Anything, alice.UserID).Return(dec("250"), nil).Once()
	repos.holdings.On("ListHoldingsByUserID", mock.Anything, mock.Anything, alice.UserID).Return([]domain.CryptoHolding{}, nil).Once()
	repos.cryptos.On("ListCryptocurrencies", mock.Anything, mock.Anything).Return([]domain.Cryptocurrency{}, nil).Once()
	repos.cryptoLedger.On("ListCryptoLedgerEntries", mock.Anything, mock.Anything, int64(5), recentCryptoEntries).Return([]domain.CryptoLedgerEntry{}, nil).Once()

	overview, err := svc.Overview(context.Background(), alice)

	require.NoError(t, err)
	assert.True(t, overview.AvailableBalance.Equal(dec("750")))
	assert.True(t, overview.PendingTotal.Equal(dec("250")))
	mock.AssertExpectationsForObjects(t, repos.objects()...)
}
