package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Storage     Storage
	Postgres    Postgres
	Redis       Redis
	API         API
	Cache       Cache
	Jobs        Jobs
	GoogleDrive GoogleDrive
	Accounts    Accounts
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

type Storage struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/ledger.db"`
}

type Postgres struct {
	Host            string `env:"PG_HOST" envDefault:"localhost"`
	Port            int    `env:"PG_PORT" envDefault:"5432"`
	DbName          string `env:"PG_DB_NAME" envDefault:"ledger"`
	Password        string `env:"PG_PASSWORD" envDefault:""`
	User            string `env:"PG_USER" envDefault:"ledger"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
}

type Redis struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

const (
	QuoteProviderIex    = "iex"
	QuoteProviderAlpaca = "alpaca"
)

type API struct {
	Debug         bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout       time.Duration `env:"API_TIMEOUT" envDefault:"5s"`
	QuoteProvider string        `env:"QUOTE_PROVIDER" envDefault:"iex"`
	Iex           Iex
	Alpaca        Alpaca
}

type Iex struct {
	Url   string `env:"IEX_API_URL" envDefault:"https://cloud.iexapis.com/stable"`
	Token string `env:"IEX_API_TOKEN" envDefault:""`
}

type Alpaca struct {
	APIKey    string `env:"ALPACA_API_KEY" envDefault:""`
	APISecret string `env:"ALPACA_API_SECRET" envDefault:""`
	BaseURL   string `env:"ALPACA_BASE_URL" envDefault:"https://paper-api.alpaca.markets"`
	DataURL   string `env:"ALPACA_DATA_URL" envDefault:""`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"1m"`
}

type Jobs struct {
	WarmQuoteCacheInterval time.Duration `env:"WARM_QUOTE_CACHE_JOB_INTERVAL" envDefault:"1m"`
	CleanupReportsCrontab  string        `env:"CLEANUP_REPORTS_JOB_CRONTAB" envDefault:"0 0 * * * *"`
}

type GoogleDrive struct {
	Enabled         bool          `env:"GOOGLE_DRIVE_ENABLED" envDefault:"false"`
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"24h"`
}

type Accounts struct {
	OpeningCash decimal.Decimal `env:"ACCOUNT_OPENING_CASH" envDefault:"10000.00"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}

// Load parses the environment without touching .env files.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	if cfg.Accounts.OpeningCash.IsNegative() {
		return nil, fmt.Errorf("ACCOUNT_OPENING_CASH must not be negative, got %s", cfg.Accounts.OpeningCash)
	}

	return cfg, nil
}
