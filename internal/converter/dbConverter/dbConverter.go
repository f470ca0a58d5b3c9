package dbConverter

import (
	"fmt"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

// TimestampLayout is fixed width so that stored timestamps sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

func ConvertAccount(dbAccount dbModel.Account) (model.Account, error) {
	createdAt, err := ParseTimestamp(dbAccount.CreatedAt)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %d: invalid created_at %q: %w", dbAccount.ID, dbAccount.CreatedAt, err)
	}

	return model.Account{
		ID:        dbAccount.ID,
		Username:  dbAccount.Username,
		Cash:      dbAccount.Cash,
		CreatedAt: createdAt,
	}, nil
}

func ConvertTransaction(dbTx dbModel.Transaction) (model.TransactionRecord, error) {
	side := model.Side(dbTx.Side)
	if !side.Valid() {
		return model.TransactionRecord{}, fmt.Errorf("transaction %d: unknown side %q", dbTx.ID, dbTx.Side)
	}

	executedAt, err := ParseTimestamp(dbTx.ExecutedAt)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("transaction %d: invalid executed_at %q: %w", dbTx.ID, dbTx.ExecutedAt, err)
	}

	return model.TransactionRecord{
		ID:          dbTx.ID,
		AccountID:   dbTx.AccountID,
		Side:        side,
		Symbol:      dbTx.Symbol,
		CompanyName: dbTx.CompanyName,
		Shares:      dbTx.Shares,
		Price:       dbTx.Price,
		Total:       dbTx.Total,
		ExecutedAt:  executedAt,
	}, nil
}

// ConvertToDbTransaction validates the record shape before it is persisted.
func ConvertToDbTransaction(record model.TransactionRecord) (dbModel.Transaction, error) {
	switch {
	case !record.Side.Valid():
		return dbModel.Transaction{}, fmt.Errorf("unknown side %q", record.Side)
	case record.Symbol == "":
		return dbModel.Transaction{}, fmt.Errorf("empty symbol")
	case record.Side == model.SideBought && record.Shares <= 0,
		record.Side == model.SideSold && record.Shares >= 0:
		return dbModel.Transaction{}, fmt.Errorf("share count %d does not match side %s", record.Shares, record.Side)
	case !record.Price.IsPositive():
		return dbModel.Transaction{}, fmt.Errorf("non-positive price %s", record.Price)
	case !record.Total.Equal(record.Price.Mul(decimal.NewFromInt(record.Shares))):
		return dbModel.Transaction{}, fmt.Errorf("total %s != price %s * shares %d", record.Total, record.Price, record.Shares)
	}

	return dbModel.Transaction{
		ID:          record.ID,
		AccountID:   record.AccountID,
		Side:        string(record.Side),
		Symbol:      record.Symbol,
		CompanyName: record.CompanyName,
		Shares:      record.Shares,
		Price:       record.Price,
		Total:       record.Total,
		ExecutedAt:  FormatTimestamp(record.ExecutedAt),
	}, nil
}
