// pkg/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Migration is one forward schema step. Versions must be strictly increasing.
type Migration struct {
	Version     int
	Description string
	Up          string
}

// Migrations is the ordered schema history of the ledger database.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "create users",
		Up: `
		CREATE TABLE users (
			id           BIGSERIAL PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		);`,
	},
	{
		Version:     2,
		Description: "create bank accounts and transaction legs",
		Up: `
		CREATE TABLE bank_accounts (
			id             BIGSERIAL PRIMARY KEY,
			user_id        BIGINT NOT NULL REFERENCES users (id),
			account_type   TEXT NOT NULL CHECK (account_type IN ('checking', 'savings', 'business')),
			account_number TEXT NOT NULL UNIQUE,
			balance        NUMERIC(15, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX idx_bank_accounts_user_id ON bank_accounts (user_id);

		CREATE TABLE transactions (
			id                 BIGSERIAL PRIMARY KEY,
			account_id         BIGINT NOT NULL REFERENCES bank_accounts (id),
			type               TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal', 'transfer', 'payment')),
			amount             NUMERIC(15, 2) NOT NULL CHECK (amount > 0),
			description        TEXT NOT NULL DEFAULT '',
			related_account_id BIGINT REFERENCES bank_accounts (id) ON DELETE SET NULL,
			created_at         TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX idx_transactions_account_id ON transactions (account_id, created_at DESC);`,
	},
	{
		Version:     3,
		Description: "create crypto accounts, currencies and holdings",
		Up: `
		CREATE TABLE crypto_accounts (
			id             BIGSERIAL PRIMARY KEY,
			user_id        BIGINT NOT NULL UNIQUE REFERENCES users (id),
			account_number TEXT NOT NULL UNIQUE,
			balance        NUMERIC(20, 8) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE cryptocurrencies (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			symbol        TEXT NOT NULL UNIQUE,
			current_price NUMERIC(20, 8) NOT NULL CHECK (current_price >= 0),
			last_updated  TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE crypto_holdings (
			user_id    BIGINT NOT NULL REFERENCES users (id),
			crypto_id  BIGINT NOT NULL REFERENCES cryptocurrencies (id),
			quantity   NUMERIC(28, 8) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, crypto_id)
		);`,
	},
	{
		Version:     4,
		Description: "create crypto orders and crypto ledger entries",
		Up: `
		CREATE TABLE crypto_transactions (
			id                   BIGSERIAL PRIMARY KEY,
			user_id              BIGINT NOT NULL REFERENCES users (id),
			crypto_id            BIGINT NOT NULL REFERENCES cryptocurrencies (id),
			type                 TEXT NOT NULL CHECK (type IN ('buy', 'sell', 'transfer')),
			amount               NUMERIC(28, 8) NOT NULL CHECK (amount > 0),
			price_at_transaction NUMERIC(20, 8) NOT NULL,
			total_value          NUMERIC(28, 8) NOT NULL,
			status               TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'rejected')),
			bank_account_id      BIGINT REFERENCES bank_accounts (id) ON DELETE SET NULL,
			created_at           TIMESTAMPTZ NOT NULL,
			decided_at           TIMESTAMPTZ
		);
		CREATE INDEX idx_crypto_transactions_user_status ON crypto_transactions (user_id, status);

		CREATE TABLE crypto_ledger_entries (
			id                      BIGSERIAL PRIMARY KEY,
			crypto_account_id       BIGINT NOT NULL REFERENCES crypto_accounts (id),
			type                    TEXT NOT NULL,
			amount                  NUMERIC(20, 8) NOT NULL CHECK (amount > 0),
			description             TEXT NOT NULL DEFAULT '',
			related_bank_account_id BIGINT REFERENCES bank_accounts (id) ON DELETE SET NULL,
			crypto_transaction_id   BIGINT REFERENCES crypto_transactions (id),
			created_at              TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX idx_crypto_ledger_entries_account ON crypto_ledger_entries (crypto_account_id, created_at DESC);`,
	},
	{
		Version:     5,
		Description: "create account history snapshots",
		Up: `
		CREATE TABLE account_history (
			id               BIGSERIAL PRIMARY KEY,
			user_id          BIGINT NOT NULL REFERENCES users (id),
			date             DATE NOT NULL,
			checking_balance NUMERIC(15, 2) NOT NULL DEFAULT 0,
			savings_balance  NUMERIC(15, 2) NOT NULL DEFAULT 0,
			business_balance NUMERIC(15, 2) NOT NULL DEFAULT 0,
			crypto_balance   NUMERIC(20, 8) NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL,
			CONSTRAINT account_history_user_date_key UNIQUE (user_id, date)
		);`,
	},
}

const ensureVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INT PRIMARY KEY,
	applied_at  TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL
);`

// Migrate applies every migration newer than the recorded schema version.
// Each migration and its version row are committed together.
func Migrate(ctx context.Context, conn *sqlx.DB, logger *slog.Logger) error {
	if _, err := conn.ExecContext(ctx, ensureVersionTable); err != nil {
		return fmt.Errorf("migrate: failed to ensure version table: %w", err)
	}

	current, err := currentVersion(ctx, conn)
	if err != nil {
		return fmt.Errorf("migrate: failed to read schema version: %w", err)
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, conn, m); err != nil {
			return fmt.Errorf("migrate: version %d (%s): %w", m.Version, m.Description, err)
		}
		logger.Info("applied migration", "version", m.Version, "description", m.Description)
	}
	return nil
}

func currentVersion(ctx context.Context, conn *sqlx.DB) (int, error) {
	var version int
	err := conn.GetContext(ctx, &version, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func applyMigration(ctx context.Context, conn *sqlx.DB, m Migration) error {
	tx, err := BeginTx(ctx, conn)
	if err != nil {
		return err
	}
	defer RollbackTx(tx)

	sqlTx := tx.(*sqlx.Tx)
	if _, err := sqlTx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, description) VALUES ($1, $2, $3)`,
		m.Version, time.Now().UTC(), m.Description,
	); err != nil {
		return err
	}
	return CommitTx(tx)
}
