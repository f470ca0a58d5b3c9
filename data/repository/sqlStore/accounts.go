package sqlStore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/converter/dbConverter"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/model/dbModel"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, username, cash, created_at`

func (s *Store) InsertAccount(ctx context.Context, username string, cash decimal.Decimal) (account model.Account, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.InsertAccount"
	query := `INSERT INTO accounts(username, cash, created_at) VALUES(?, ?, ?) RETURNING ` + accountColumns

	slog.Debug("InsertAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		if err != nil {
			slog.Error("InsertAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertAccount completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", account.ID))
		}
	}()

	q := s.txOrDb(ctx)
	dbAccount := dbModel.Account{}
	err = q.QueryRowxContext(ctx, q.Rebind(query), username, cash, dbConverter.FormatTimestamp(time.Now())).StructScan(&dbAccount)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, repository.ErrAlreadyExists
		}
		return model.Account{}, err
	}

	return dbConverter.ConvertAccount(dbAccount)
}

func (s *Store) GetAccount(ctx context.Context, accountID int64) (account model.Account, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.GetAccount"
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	slog.Debug("GetAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))
	defer func() {
		if err != nil {
			slog.Error("GetAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAccount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	return s.getAccount(ctx, query, accountID)
}

func (s *Store) lockAccount(ctx context.Context, accountID int64) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?` + s.dialect.lockSuffix
	return s.getAccount(ctx, query, accountID)
}

func (s *Store) getAccount(ctx context.Context, query string, accountID int64) (model.Account, error) {
	q := s.txOrDb(ctx)
	dbAccount := dbModel.Account{}
	err := q.QueryRowxContext(ctx, q.Rebind(query), accountID).StructScan(&dbAccount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, repository.ErrNotFound
		}
		return model.Account{}, err
	}

	return dbConverter.ConvertAccount(dbAccount)
}

func (s *Store) ListAccounts(ctx context.Context) (accounts []model.Account, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.ListAccounts"
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	slog.Debug("ListAccounts start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ListAccounts failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListAccounts completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := s.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	accounts = make([]model.Account, 0)
	for rows.Next() {
		var dbAccount dbModel.Account
		err = rows.StructScan(&dbAccount)
		if err != nil {
			return nil, err
		}

		account, err := dbConverter.ConvertAccount(dbAccount)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// DeleteAccount removes the account; its transactions go with it through ON DELETE CASCADE.
func (s *Store) DeleteAccount(ctx context.Context, accountID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.DeleteAccount"
	params := map[string]any{
		"accountID": accountID,
	}

	// каскадное удаление
	query := `DELETE FROM accounts WHERE id = ?`

	slog.Debug("DeleteAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error("DeleteAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteAccount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	q := s.txOrDb(ctx)
	res, err := q.ExecContext(ctx, q.Rebind(query), accountID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
