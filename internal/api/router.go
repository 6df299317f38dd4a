// internal/api/router.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finflow-ledger/internal/api/handler"
	identity "finflow-ledger/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Banking *handler.BankingHandler
	Crypto  *handler.CryptoHandler
	Admin   *handler.AdminHandler
	Report  *handler.ReportHandler
}

// RouterConfig carries the router settings taken from the application config.
type RouterConfig struct {
	JWTSecret          []byte
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
}

// Pinger reports database liveness for /health. *sqlx.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter sets up and returns a new HTTP router. Authenticated callers are provisioned
// through users before reaching any handler.
func NewRouter(h Handlers, cfg RouterConfig, users identity.UserProvisioner, db Pinger, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DB UNAVAILABLE"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.Identity(cfg.JWTSecret, logger))
		r.Use(identity.Provision(users, logger))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.Banking.ListAccounts)
			r.Post("/", h.Banking.OpenAccount)
			r.Post("/{accountID}/deposit", h.Banking.Deposit)
			r.Post("/{accountID}/withdraw", h.Banking.Withdraw)
			r.Post("/{accountID}/transfer", h.Banking.Transfer)
		})
		r.Get("/transactions", h.Banking.GetTransactionHistory)

		r.Route("/crypto", func(r chi.Router) {
			r.Get("/", h.Crypto.Overview)
			r.Post("/transfer-in", h.Crypto.TransferIn)
			r.Post("/transfer-out", h.Crypto.TransferOut)
			r.Post("/buy", h.Crypto.Buy)
			r.Post("/sell", h.Crypto.Sell)
			r.Get("/orders", h.Crypto.ListOrders)
		})

		r.Get("/dashboard", h.Report.Dashboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(identity.RequireSuperuser)
			r.Get("/orders/pending", h.Admin.ListPending)
			r.Post("/orders/{orderID}/approve", h.Admin.Approve)
			r.Post("/orders/{orderID}/reject", h.Admin.Reject)
			r.Post("/cryptocurrencies", h.Admin.CreateCryptocurrency)
			r.Post("/prices/refresh", h.Admin.RefreshPrices)
			r.Post("/snapshots/run", h.Admin.RunSnapshots)
		})
	})

	return r
}
