package sqlStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/jmoiron/sqlx"
)

// содержит общие методы для sqlx.DB и sqlx.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// Store keeps accounts and their append-only transaction log in Postgres or SQLite.
//
// Postgres serializes orders of one account with a row lock on the account.
// SQLite connections opened by data.NewSQLiteClient begin write transactions
// IMMEDIATE, so an order takes the database write lock before it re-reads
// cash and holdings, also across processes sharing the file.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db, dialect: dialectFor(db.DriverName())}
}

// WithinAccountTransaction runs fn inside a transaction holding the account's exclusive lock.
//
// The transaction commits when fn finished without error. Reads made with the
// context passed to fn observe the locked state.
func (s *Store) WithinAccountTransaction(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	return s.withinTx(ctx, nil, accountID, s.lockAccount, fn)
}

// WithinSnapshot runs fn inside a read-only transaction. Every read made with the
// context passed to fn sees the same committed state, and no account lock is taken.
func (s *Store) WithinSnapshot(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	checkAccount := func(ctx context.Context, accountID int64) (model.Account, error) {
		return s.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	}
	return s.withinTx(ctx, s.dialect.snapshotTxOptions, accountID, checkAccount, fn)
}

func (s *Store) withinTx(
	ctx context.Context,
	opts *sql.TxOptions,
	accountID int64,
	openAccount func(ctx context.Context, accountID int64) (model.Account, error),
	fn func(ctx context.Context) error,
) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if s.extractTx(ctx) != nil {
		return errors.New("nested account transaction")
	}

	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", repository.ErrUnavailable, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("failed to rollback transaction", slog.String("rqID", rqID), slog.String("err", rbErr.Error()))
			}
		}
	}()

	txCtx := s.injectTx(ctx, tx)

	if _, err = openAccount(txCtx, accountID); err != nil {
		return err
	}

	if err = fn(txCtx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", repository.ErrCommitFailed, err)
	}

	return nil
}

// injectTx injects transaction to context
func (s *Store) injectTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx extracts transaction from context
func (s *Store) extractTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

// txOrDb returns the transaction from the context if present, otherwise the database itself.
func (s *Store) txOrDb(ctx context.Context) Querier {
	if tx := s.extractTx(ctx); tx != nil {
		return tx
	}
	return s.db
}
