// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"finflow-ledger/pkg/db"
)

// AppConfig holds all application-wide configuration.
type AppConfig struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	AutoMigrate        bool          `mapstructure:"DB_AUTO_MIGRATE"`
	NodeID             int64         `mapstructure:"NODE_ID"`

	DB db.Config `mapstructure:",squash"`

	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
	SnapshotSchedule     string `mapstructure:"SNAPSHOT_SCHEDULE"`
	PriceRefreshSchedule string `mapstructure:"PRICE_REFRESH_SCHEDULE"`
	PriceGrowthFactorRaw string `mapstructure:"PRICE_GROWTH_FACTOR"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	// PriceGrowthFactor is PriceGrowthFactorRaw parsed.
	PriceGrowthFactor decimal.Decimal `mapstructure:"-"`
}

// LoadConfig reads configuration from environment variables, applying defaults for
// everything except the JWT secret.
func LoadConfig() (*AppConfig, error) {
	v := viper.GetViper()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("NODE_ID", 1)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "ledgerdb")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SNAPSHOT_SCHEDULE", "5 0 * * *")      // 00:05 every day
	v.SetDefault("PRICE_REFRESH_SCHEDULE", "0 0 * * *") // midnight; "off" disables
	v.SetDefault("PRICE_GROWTH_FACTOR", "1.01")
	v.SetDefault("EVENTS_EXCHANGE", "ledger_events")
	v.AutomaticEnv()

	// Keys without defaults must be bound to show up in Unmarshal.
	_ = v.BindEnv("DATABASE_URL")
	_ = v.BindEnv("JWT_SECRET")
	_ = v.BindEnv("RABBITMQ_URL")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) finalize() error {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}

	factor, err := decimal.NewFromString(strings.TrimSpace(cfg.PriceGrowthFactorRaw))
	if err != nil {
		return fmt.Errorf("invalid PRICE_GROWTH_FACTOR %q: %w", cfg.PriceGrowthFactorRaw, err)
	}
	if !factor.IsPositive() {
		return fmt.Errorf("PRICE_GROWTH_FACTOR must be positive, got %s", factor)
	}
	cfg.PriceGrowthFactor = factor

	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", cfg.NodeID)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return nil
}
