// internal/service/price_service_test.go
package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/util"
)

func TestRefreshPrices(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

	t.Run("ScalesInsideTransaction", func(t *testing.T) {
		repos := newRepoMocks()
		tx := new(MockTxController)
		svc := NewPriceService(new(MockDBBeginner), new(MockDBExecutor), repos.cryptos, dec("1.01"), util.FixedClock{At: now}, discardLogger(), txFuncsFor(tx))

		updated := []domain.Cryptocurrency{{ID: 1, Symbol: "BTC", CurrentPrice: dec("50500")}}
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptos.On("ScaleAllPrices", mock.Anything, tx, decEq("1.01"), now).Return(updated, nil).Once()
		repos.cryptos.On("ListCryptocurrencies", mock.Anything, mock.Anything).Return(updated, nil).Once()

		got, err := svc.RefreshPrices(context.Background())

		require.NoError(t, err)
		assert.Equal(t, updated, got)
		mock.AssertExpectationsForObjects(t, repos.cryptos, tx)
	})

	t.Run("ErrorRollsBack", func(t *testing.T) {
		repos := newRepoMocks()
		tx := new(MockTxController)
		svc := NewPriceService(new(MockDBBeginner), new(MockDBExecutor), repos.cryptos, dec("1.01"), util.FixedClock{At: now}, discardLogger(), txFuncsFor(tx))

		tx.On("Rollback").Return(nil).Once()
		repos.cryptos.On("ScaleAllPrices", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()

		_, err := svc.RefreshPrices(context.Background())

		require.Error(t, err)
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("CappedPriceIsSkippedAndLogged", func(t *testing.T) {
		repos := newRepoMocks()
		tx := new(MockTxController)
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		svc := NewPriceService(new(MockDBBeginner), new(MockDBExecutor), repos.cryptos, dec("1.01"), util.FixedClock{At: now}, logger, txFuncsFor(tx))

		eth := domain.Cryptocurrency{ID: 2, Symbol: "ETH", CurrentPrice: dec("3030")}
		capped := domain.Cryptocurrency{ID: 3, Symbol: "MOON", CurrentPrice: dec("999999999999.99")}
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil).Once()
		repos.cryptos.On("ScaleAllPrices", mock.Anything, tx, decEq("1.01"), now).Return([]domain.Cryptocurrency{eth}, nil).Once()
		repos.cryptos.On("ListCryptocurrencies", mock.Anything, mock.Anything).Return([]domain.Cryptocurrency{eth, capped}, nil).Once()

		got, err := svc.RefreshPrices(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []domain.Cryptocurrency{eth}, got)
		assert.Contains(t, logs.String(), "price at ceiling")
		assert.Contains(t, logs.String(), "symbol=MOON")
		assert.NotContains(t, logs.String(), "symbol=ETH")
	})
}

func TestAddCryptocurrency(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	newSvc := func() (PriceService, *repoMocks) {
		repos := newRepoMocks()
		return NewPriceService(new(MockDBBeginner), new(MockDBExecutor), repos.cryptos, dec("1.01"), util.FixedClock{At: now}, discardLogger(), txFuncsFor(new(MockTxController))), repos
	}

	t.Run("Success", func(t *testing.T) {
		svc, repos := newSvc()
		repos.cryptos.On("CreateCryptocurrency", mock.Anything, mock.Anything, mock.MatchedBy(func(c *domain.Cryptocurrency) bool {
			return c.Symbol == "SOL" && c.Name == "Solana" && c.CurrentPrice.Equal(dec("150.5")) && c.LastUpdated.Equal(now)
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*domain.Cryptocurrency).ID = 4
		}).Return(nil).Once()

		crypto, err := svc.AddCryptocurrency(context.Background(), " Solana ", "sol", dec("150.5"))

		require.NoError(t, err)
		assert.Equal(t, int64(4), crypto.ID)
		repos.cryptos.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		svc, repos := newSvc()
		repos.cryptos.On("CreateCryptocurrency", mock.Anything, mock.Anything, mock.Anything).Return(util.ErrDuplicateEntry).Once()

		_, err := svc.AddCryptocurrency(context.Background(), "Bitcoin", "BTC", dec("1"))

		assert.ErrorIs(t, err, util.ErrDuplicateEntry)
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		for _, price := range []string{"0", "-1", "1.123456789", "1000000000000"} {
			svc, repos := newSvc()

			_, err := svc.AddCryptocurrency(context.Background(), "Bitcoin", "BTC", dec(price))

			var vErr *util.ValidationError
			assert.ErrorAs(t, err, &vErr, price)
			repos.cryptos.AssertNotCalled(t, "CreateCryptocurrency", mock.Anything, mock.Anything, mock.Anything)
		}
	})
}
