package dbModel

import "github.com/shopspring/decimal"

type Account struct {
	ID        int64           `db:"id"`
	Username  string          `db:"username"`
	Cash      decimal.Decimal `db:"cash"`
	CreatedAt string          `db:"created_at"`
}
