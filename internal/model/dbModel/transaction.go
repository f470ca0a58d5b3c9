package dbModel

import "github.com/shopspring/decimal"

type Transaction struct {
	ID          int64           `db:"id"`
	AccountID   int64           `db:"account_id"`
	Side        string          `db:"side"`
	Symbol      string          `db:"symbol"`
	CompanyName string          `db:"company_name"`
	Shares      int64           `db:"shares"`
	Price       decimal.Decimal `db:"price"`
	Total       decimal.Decimal `db:"total"`
	ExecutedAt  string          `db:"executed_at"`
}
