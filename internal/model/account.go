package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64
	Username  string
	Cash      decimal.Decimal
	CreatedAt time.Time
}
