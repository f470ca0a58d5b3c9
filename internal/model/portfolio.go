package model

import (
	"github.com/shopspring/decimal"
)

// Holding is the aggregate of every record of one symbol in an account's log.
type Holding struct {
	Symbol         string
	CompanyName    string
	Shares         int64
	CostBasisTotal decimal.Decimal
}

type Position struct {
	Holding
	Price       decimal.Decimal
	MarketValue decimal.Decimal
}

type Valuation struct {
	AccountID      int64
	Positions      []Position
	Cash           decimal.Decimal
	PortfolioTotal decimal.Decimal
	GrandTotal     decimal.Decimal
}

type PortfolioReport struct {
	Account   Account
	Valuation Valuation
	History   []TransactionRecord
}

type Report struct {
	FileName     string
	Content      []byte
	DownloadLink string
}
