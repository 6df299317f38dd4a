// internal/service/price_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
)

// PriceService simulates the price feed.
type PriceService interface {
	// RefreshPrices multiplies every listed price by the growth factor.
	RefreshPrices(ctx context.Context) ([]domain.Cryptocurrency, error)
	ListCryptocurrencies(ctx context.Context) ([]domain.Cryptocurrency, error)
	// AddCryptocurrency lists a new asset at the given price.
	AddCryptocurrency(ctx context.Context, name, symbol string, price decimal.Decimal) (*domain.Cryptocurrency, error)
}

type priceService struct {
	txRunner
	dbExecutor repository.DBExecutor
	cryptos    repository.CryptocurrencyRepository
	factor     decimal.Decimal
	clock      util.Clock
	logger     *slog.Logger
}

// NewPriceService creates a new instance of PriceService.
func NewPriceService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	cryptos repository.CryptocurrencyRepository,
	factor decimal.Decimal,
	clock util.Clock,
	logger *slog.Logger,
	txFuncs TxFuncs,
) PriceService {
	return &priceService{
		txRunner:   txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		dbExecutor: dbExecutor,
		cryptos:    cryptos,
		factor:     factor,
		clock:      clock,
		logger:     logger,
	}
}

func (s *priceService) RefreshPrices(ctx context.Context) ([]domain.Cryptocurrency, error) {
	var updated []domain.Cryptocurrency
	err := s.inTx(ctx, "refresh prices", func(q repository.DBExecutor) error {
		var err error
		updated, err = s.cryptos.ScaleAllPrices(ctx, q, s.factor, s.clock.NowUTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("prices refreshed", "count", len(updated), "factor", s.factor.String())
	s.warnCapped(ctx, updated)
	return updated, nil
}

// warnCapped logs every asset the refresh left alone because its price hit the column ceiling.
func (s *priceService) warnCapped(ctx context.Context, updated []domain.Cryptocurrency) {
	all, err := s.cryptos.ListCryptocurrencies(ctx, s.dbExecutor)
	if err != nil {
		s.logger.Warn("could not check for capped prices", "error", err)
		return
	}
	if len(all) == len(updated) {
		return
	}
	refreshed := make(map[int64]struct{}, len(updated))
	for _, c := range updated {
		refreshed[c.ID] = struct{}{}
	}
	for _, c := range all {
		if _, ok := refreshed[c.ID]; !ok {
			s.logger.Warn("price at ceiling, skipped refresh", "crypto_id", c.ID, "symbol", c.Symbol, "price", c.CurrentPrice.String())
		}
	}
}

func (s *priceService) AddCryptocurrency(ctx context.Context, name, symbol string, price decimal.Decimal) (*domain.Cryptocurrency, error) {
	if err := validateAmount("price", price, domain.CryptoScale); err != nil {
		return nil, err
	}
	if price.GreaterThanOrEqual(domain.MaxCryptoValue) {
		return nil, util.NewValidationError("price", "is too large")
	}

	crypto := domain.NewCryptocurrency(strings.TrimSpace(name), strings.ToUpper(strings.TrimSpace(symbol)), price)
	crypto.LastUpdated = s.clock.NowUTC()
	if err := s.cryptos.CreateCryptocurrency(ctx, s.dbExecutor, crypto); err != nil {
		return nil, err
	}
	s.logger.Info("cryptocurrency listed", "crypto_id", crypto.ID, "symbol", crypto.Symbol, "price", crypto.CurrentPrice.String())
	return crypto, nil
}

func (s *priceService) ListCryptocurrencies(ctx context.Context) ([]domain.Cryptocurrency, error) {
	cryptos, err := s.cryptos.ListCryptocurrencies(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("list cryptocurrencies: %w", err)
	}
	return cryptos, nil
}
