package iexModel

import "github.com/shopspring/decimal"

// Quote is the subset of the IEX Cloud /stock/{symbol}/quote payload we use.
type Quote struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}
