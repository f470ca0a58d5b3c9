package sqlStore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/converter/dbConverter"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/model/dbModel"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, account_id, side, symbol, company_name, shares, price, total, executed_at`

// HeldShares sums the signed share count of one symbol over the account's log.
func (s *Store) HeldShares(ctx context.Context, accountID int64, symbol string) (shares int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.HeldShares"
	query := `
		SELECT CAST(COALESCE(SUM(shares), 0) AS BIGINT)
		FROM transactions
		WHERE account_id = ?
		AND symbol = ?
		`

	slog.Debug("HeldShares start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("HeldShares failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("HeldShares completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("shares", shares))
		}
	}()

	q := s.txOrDb(ctx)
	err = q.GetContext(ctx, &shares, q.Rebind(query), accountID, symbol)
	if err != nil {
		return 0, err
	}

	return shares, nil
}

// CommitOrder applies balanceDelta to the account's cash and appends record as one unit.
//
// Called inside WithinAccountTransaction it joins that transaction, otherwise it opens its own.
func (s *Store) CommitOrder(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, record model.TransactionRecord) (model.TransactionRecord, error) {
	if s.extractTx(ctx) == nil {
		var committed model.TransactionRecord
		err := s.WithinAccountTransaction(ctx, accountID, func(ctx context.Context) error {
			var err error
			committed, err = s.commitOrder(ctx, accountID, balanceDelta, record)
			return err
		})
		return committed, err
	}

	return s.commitOrder(ctx, accountID, balanceDelta, record)
}

func (s *Store) commitOrder(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, record model.TransactionRecord) (committed model.TransactionRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.commitOrder"
	updateQuery := `UPDATE accounts SET cash = ? WHERE id = ?`
	insertQuery := `
		INSERT INTO transactions(account_id, side, symbol, company_name, shares, price, total, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	slog.Debug(
		"commitOrder start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int64("accountID", accountID),
		slog.String("balanceDelta", balanceDelta.String()),
		slog.Any("record", record),
	)
	defer func() {
		if err != nil {
			slog.Error("commitOrder failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("commitOrder completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("transactionID", committed.ID))
		}
	}()

	record.AccountID = accountID
	dbTx, err := dbConverter.ConvertToDbTransaction(record)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: invalid record: %w", repository.ErrCommitFailed, err)
	}

	account, err := s.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return model.TransactionRecord{}, err
	}

	newCash := account.Cash.Add(balanceDelta)
	if newCash.IsNegative() {
		return model.TransactionRecord{}, fmt.Errorf("%w: cash %s, delta %s", repository.ErrNegativeBalance, account.Cash, balanceDelta)
	}

	q := s.txOrDb(ctx)
	if _, err = q.ExecContext(ctx, q.Rebind(updateQuery), newCash, accountID); err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: update balance: %w", repository.ErrCommitFailed, err)
	}

	err = q.QueryRowxContext(
		ctx,
		q.Rebind(insertQuery),
		dbTx.AccountID,
		dbTx.Side,
		dbTx.Symbol,
		dbTx.CompanyName,
		dbTx.Shares,
		dbTx.Price,
		dbTx.Total,
		dbTx.ExecutedAt,
	).Scan(&dbTx.ID)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: append record: %w", repository.ErrCommitFailed, err)
	}

	return dbConverter.ConvertTransaction(dbTx)
}

// ReadRecords returns the account's log ordered by execution time, ties by insertion order.
func (s *Store) ReadRecords(ctx context.Context, accountID int64) (records []model.TransactionRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.ReadRecords"
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ?
		ORDER BY executed_at, id
		`

	slog.Debug("ReadRecords start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))
	defer func() {
		if err != nil {
			slog.Error("ReadRecords failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ReadRecords completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(records)))
		}
	}()

	q := s.txOrDb(ctx)
	var dbTxs []dbModel.Transaction
	err = q.SelectContext(ctx, &dbTxs, q.Rebind(query), accountID)
	if err != nil {
		return nil, err
	}

	records = make([]model.TransactionRecord, 0, len(dbTxs))
	for _, dbTx := range dbTxs {
		record, err := dbConverter.ConvertTransaction(dbTx)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// HeldSymbols lists symbols that at least one account currently holds.
func (s *Store) HeldSymbols(ctx context.Context) (symbols []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "sqlStore.HeldSymbols"
	query := `
		SELECT symbol
		FROM transactions
		GROUP BY account_id, symbol
		HAVING SUM(shares) > 0
		`

	slog.Debug("HeldSymbols start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("HeldSymbols failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("HeldSymbols completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	held := `SELECT DISTINCT symbol FROM (` + query + `) held ORDER BY symbol`
	symbols = make([]string, 0)
	err = s.txOrDb(ctx).SelectContext(ctx, &symbols, held)
	if err != nil {
		return nil, err
	}

	return symbols, nil
}
