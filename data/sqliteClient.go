package data

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// NewSQLiteClient opens (creating if needed) the database file at path and migrates it.
//
// Write transactions begin IMMEDIATE: an order holds the write lock from its
// first read, and a concurrent writer waits up to busy_timeout for it.
// The pool is limited to one connection per handle.
func NewSQLiteClient(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sqlx.Connect(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err = Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	slog.Info("SQLite connected and migrated", slog.String("path", path))

	return db, nil
}
