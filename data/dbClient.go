package data

import (
	"fmt"
	"log/slog"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/jmoiron/sqlx"
)

// NewDBClient connects to the storage backend selected by cfg.Storage.Driver.
func NewDBClient(cfg *config.Config) *sqlx.DB {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		return NewPostgresClient(cfg)
	case config.StorageDriverSQLite:
		db, err := NewSQLiteClient(cfg.Storage.SQLitePath)
		if err != nil {
			slog.Error("SQLite connect error", slog.String("err", err.Error()))
			panic(err)
		}
		return db
	default:
		panic(fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver))
	}
}
