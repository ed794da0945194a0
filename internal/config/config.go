// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	CatalogModeMock = "mock"
	CatalogModeHTTP = "http"
)

// Config holds every setting of the server process
type Config struct {
	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBConnStr  string `env:"DB_CONN_STR"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"pricewatch"`

	GRPCAddr string `env:"GRPC_ADDR" envDefault:":8080"`
	APIToken string `env:"API_TOKEN" envDefault:"dev-token"`

	CatalogMode    string        `env:"CATALOG_MODE" envDefault:"mock"`
	CatalogURL     string        `env:"CATALOG_URL" envDefault:"http://127.0.0.1:8002"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`

	StoreTimeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	CycleWorkers     int           `env:"CYCLE_WORKERS" envDefault:"4"`
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"0s"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	SeedFile     string `env:"SEED_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have a closed set of values
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", c.DBDriver)
	}

	switch c.CatalogMode {
	case CatalogModeMock, CatalogModeHTTP:
	default:
		return fmt.Errorf("CATALOG_MODE must be mock or http, got %q", c.CatalogMode)
	}

	if c.CycleWorkers < 1 {
		return fmt.Errorf("CYCLE_WORKERS must be positive, got %d", c.CycleWorkers)
	}
	if c.CatalogTimeout <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT and STORE_TIMEOUT must be positive")
	}
	if c.ScheduleInterval < 0 {
		return fmt.Errorf("SCHEDULE_INTERVAL cannot be negative")
	}

	return nil
}

// DSN returns DB_CONN_STR, or a postgres connection string built from the
// individual DB_* variables (Docker friendly)
func (c *Config) DSN() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	if c.DBDriver == "sqlite3" {
		return "pricewatch.db"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
