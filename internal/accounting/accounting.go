// Package accounting holds the arithmetic of orders and portfolio projection.
// Nothing here touches storage or the network; callers supply state read under
// the account lock and persist what is returned.
package accounting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/service"
	"github.com/shopspring/decimal"
)

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// PlanBuy returns the balance delta (negative) and the record of buying shares at quote.Price.
func PlanBuy(cash decimal.Decimal, quote model.Quote, shares int64, at time.Time) (decimal.Decimal, model.TransactionRecord, error) {
	if shares <= 0 {
		return decimal.Zero, model.TransactionRecord{}, service.ErrInvalidShareCount
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, model.TransactionRecord{}, &service.QuoteUnavailableError{Symbol: quote.Symbol}
	}

	cost := quote.Price.Mul(decimal.NewFromInt(shares))
	if cash.LessThan(cost) {
		return decimal.Zero, model.TransactionRecord{}, fmt.Errorf("%w: need %s, have %s", service.ErrInsufficientFunds, cost, cash)
	}

	return cost.Neg(), newRecord(model.SideBought, quote, shares, at), nil
}

// PlanSell returns the balance delta (positive) and the record of selling shares out of held.
func PlanSell(held int64, quote model.Quote, shares int64, at time.Time) (decimal.Decimal, model.TransactionRecord, error) {
	if shares <= 0 {
		return decimal.Zero, model.TransactionRecord{}, service.ErrInvalidShareCount
	}
	if held <= 0 {
		return decimal.Zero, model.TransactionRecord{}, fmt.Errorf("%w: %s", service.ErrNoPosition, quote.Symbol)
	}
	if shares > held {
		return decimal.Zero, model.TransactionRecord{}, fmt.Errorf("%w: selling %d of %d %s", service.ErrExceedsHoldings, shares, held, quote.Symbol)
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, model.TransactionRecord{}, &service.QuoteUnavailableError{Symbol: quote.Symbol}
	}

	proceeds := quote.Price.Mul(decimal.NewFromInt(shares))

	return proceeds, newRecord(model.SideSold, quote, -shares, at), nil
}

func newRecord(side model.Side, quote model.Quote, signedShares int64, at time.Time) model.TransactionRecord {
	return model.TransactionRecord{
		Side:        side,
		Symbol:      quote.Symbol,
		CompanyName: quote.Name,
		Shares:      signedShares,
		Price:       quote.Price,
		Total:       quote.Price.Mul(decimal.NewFromInt(signedShares)),
		ExecutedAt:  at,
	}
}

// FoldHoldings aggregates records per symbol and keeps symbols with a positive share count.
// Records are expected in log order; the company name comes from the latest record.
func FoldHoldings(records []model.TransactionRecord) map[string]model.Holding {
	all := make(map[string]model.Holding)
	for _, record := range records {
		h := all[record.Symbol]
		h.Symbol = record.Symbol
		h.Shares += record.Shares
		h.CostBasisTotal = h.CostBasisTotal.Add(record.Total)
		if record.CompanyName != "" {
			h.CompanyName = record.CompanyName
		}
		all[record.Symbol] = h
	}

	holdings := make(map[string]model.Holding, len(all))
	for symbol, h := range all {
		if h.Shares > 0 {
			holdings[symbol] = h
		}
	}

	return holdings
}

func SortedSymbols(holdings map[string]model.Holding) []string {
	symbols := make([]string, 0, len(holdings))
	for symbol := range holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols
}

// Valuate prices every holding. A holding without a positive price fails the whole valuation.
func Valuate(accountID int64, cash decimal.Decimal, holdings map[string]model.Holding, prices map[string]decimal.Decimal) (model.Valuation, error) {
	valuation := model.Valuation{
		AccountID:      accountID,
		Positions:      make([]model.Position, 0, len(holdings)),
		Cash:           cash,
		PortfolioTotal: decimal.Zero,
	}

	for _, symbol := range SortedSymbols(holdings) {
		price, ok := prices[symbol]
		if !ok || !price.IsPositive() {
			return model.Valuation{}, &service.QuoteUnavailableError{Symbol: symbol}
		}

		h := holdings[symbol]
		position := model.Position{
			Holding:     h,
			Price:       price,
			MarketValue: price.Mul(decimal.NewFromInt(h.Shares)),
		}
		valuation.Positions = append(valuation.Positions, position)
		valuation.PortfolioTotal = valuation.PortfolioTotal.Add(position.MarketValue)
	}

	valuation.GrandTotal = valuation.PortfolioTotal.Add(cash)

	return valuation, nil
}
