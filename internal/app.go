// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"finflow-ledger/internal/api"
	"finflow-ledger/internal/api/handler"
	"finflow-ledger/internal/config"
	"finflow-ledger/internal/repository/postgres"
	"finflow-ledger/internal/scheduler"
	"finflow-ledger/internal/service"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
	"finflow-ledger/pkg/events"
	"finflow-ledger/pkg/idgen"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	DB        *sqlx.DB
	Publisher events.Publisher

	Repositories service.Repositories

	// Services
	UserService      service.UserService
	LedgerService    service.LedgerService
	CryptoService    service.CryptoService
	ApprovalService  service.ApprovalService
	SnapshotService  service.SnapshotService
	PriceService     service.PriceService
	ReportingService service.ReportingService

	Scheduler *scheduler.Scheduler

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components. The scheduler is built but not started.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, app.DB, app.Logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// 4. Initialize Repositories
	app.Repositories = service.Repositories{
		Users:          postgres.NewUserRepository(),
		BankAccounts:   postgres.NewBankAccountRepository(),
		CryptoAccounts: postgres.NewCryptoAccountRepository(),
		Cryptos:        postgres.NewCryptocurrencyRepository(),
		CryptoOrders:   postgres.NewCryptoTransactionRepository(),
		Holdings:       postgres.NewHoldingRepository(),
		Transactions:   postgres.NewTransactionRepository(),
		CryptoLedger:   postgres.NewCryptoLedgerRepository(),
		History:        postgres.NewAccountHistoryRepository(),
	}
	app.Logger.Info("Repositories initialized.")

	numbers, err := idgen.NewAccountNumberGenerator(cfg.NodeID)
	if err != nil {
		return fmt.Errorf("failed to create account number generator: %w", err)
	}
	app.Publisher = events.NewPublisher(cfg.RabbitMQURL, cfg.EventsExchange, app.Logger)

	// 5. Initialize Services
	// app.DB is both the DBTxBeginner and the non-transactional DBExecutor.
	clock := util.NewSystemClock()
	txFuncs := service.DefaultTxFuncs()
	app.UserService = service.NewUserService(app.DB, app.Repositories.Users, clock, app.Logger)
	app.LedgerService = service.NewLedgerService(app.DB, app.DB, app.Repositories, numbers, txFuncs)
	app.CryptoService = service.NewCryptoService(app.DB, app.DB, app.Repositories, numbers, txFuncs)
	app.ApprovalService = service.NewApprovalService(app.DB, app.DB, app.Repositories, app.Publisher, clock, app.Logger, txFuncs)
	app.SnapshotService = service.NewSnapshotService(app.DB, app.Repositories, app.Publisher, clock, app.Logger)
	app.PriceService = service.NewPriceService(app.DB, app.DB, app.Repositories.Cryptos, cfg.PriceGrowthFactor, clock, app.Logger, txFuncs)
	app.ReportingService = service.NewReportingService(app.DB, app.Repositories, clock)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	handlers := api.Handlers{
		Banking: handler.NewBankingHandler(app.LedgerService, app.Logger),
		Crypto:  handler.NewCryptoHandler(app.CryptoService, app.Logger),
		Admin:   handler.NewAdminHandler(app.ApprovalService, app.PriceService, app.SnapshotService, app.Logger),
		Report:  handler.NewReportHandler(app.ReportingService, app.Logger),
	}
	app.HTTPHandler = api.NewRouter(handlers, api.RouterConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, app.UserService, app.DB, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	// 7. Scheduler
	jobs := scheduler.NewJobs(app.SnapshotService, app.PriceService, app.Logger)
	app.Scheduler = scheduler.NewScheduler(jobs, app.Logger, scheduler.Config{
		SnapshotSchedule:     cfg.SnapshotSchedule,
		PriceRefreshSchedule: cfg.PriceRefreshSchedule,
	})

	return nil
}

// StartScheduler starts the cron jobs when enabled in the configuration.
func (app *Application) StartScheduler() error {
	if !app.Config.SchedulerEnabled {
		app.Logger.Info("Scheduler disabled by configuration.")
		return nil
	}
	return app.Scheduler.Start()
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Scheduler != nil {
		select {
		case <-app.Scheduler.Stop().Done():
			app.Logger.Info("Scheduler stopped.")
		case <-ctx.Done():
			app.Logger.Warn("Scheduler jobs still running at shutdown deadline.")
		}
	}
	if app.Publisher != nil {
		app.Publisher.Close()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
