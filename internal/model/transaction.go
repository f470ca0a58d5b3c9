package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBought Side = "Bought"
	SideSold   Side = "Sold"
)

func (s Side) Valid() bool {
	return s == SideBought || s == SideSold
}

// TransactionRecord is one immutable entry of an account's log.
// Shares and Total are signed: positive for buys, negative for sells.
type TransactionRecord struct {
	ID          int64
	AccountID   int64
	Side        Side
	Symbol      string
	CompanyName string
	Shares      int64
	Price       decimal.Decimal
	Total       decimal.Decimal
	ExecutedAt  time.Time
}
