package sqlStore

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type dialect struct {
	// lockSuffix is appended to the account select that opens every account transaction.
	lockSuffix string
	// snapshotTxOptions open the read-only transactions of WithinSnapshot.
	snapshotTxOptions *sql.TxOptions
}

func dialectFor(driverName string) dialect {
	switch driverName {
	case "pgx", "postgres":
		return dialect{
			lockSuffix:        " FOR UPDATE",
			snapshotTxOptions: &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		}
	default:
		// sqlite has a single isolation level; a read-only BEGIN stays deferred
		return dialect{snapshotTxOptions: &sql.TxOptions{ReadOnly: true}}
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
