package accounting

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func quote(symbol, price string) model.Quote {
	return model.Quote{Symbol: symbol, Name: symbol + " Inc.", Price: decimal.RequireFromString(price)}
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestPlanBuy(t *testing.T) {
	delta, record, err := PlanBuy(decimal.NewFromInt(1000), quote("AAPL", "150.00"), 3, at)
	require.NoError(t, err)

	assert.True(t, delta.Equal(decimal.NewFromInt(-450)), delta.String())
	assert.Equal(t, model.SideBought, record.Side)
	assert.Equal(t, "AAPL", record.Symbol)
	assert.Equal(t, "AAPL Inc.", record.CompanyName)
	assert.Equal(t, int64(3), record.Shares)
	assert.True(t, record.Price.Equal(decimal.NewFromInt(150)))
	assert.True(t, record.Total.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, at, record.ExecutedAt)
}

func TestPlanBuyErrors(t *testing.T) {
	tests := []struct {
		name   string
		cash   string
		price  string
		shares int64
		want   error
	}{
		{name: "zero shares", cash: "1000", price: "10", shares: 0, want: service.ErrInvalidShareCount},
		{name: "negative shares", cash: "1000", price: "10", shares: -1, want: service.ErrInvalidShareCount},
		{name: "insufficient funds", cash: "100", price: "50", shares: 3, want: service.ErrInsufficientFunds},
		{name: "zero price", cash: "100", price: "0", shares: 1, want: service.ErrQuoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PlanBuy(decimal.RequireFromString(tt.cash), quote("AAPL", tt.price), tt.shares, at)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPlanBuyExactCash(t *testing.T) {
	delta, _, err := PlanBuy(decimal.NewFromInt(150), quote("AAPL", "50"), 3, at)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Add(delta).IsZero())
}

func TestPlanSell(t *testing.T) {
	delta, record, err := PlanSell(5, quote("AAPL", "160.00"), 2, at)
	require.NoError(t, err)

	assert.True(t, delta.Equal(decimal.NewFromInt(320)))
	assert.Equal(t, model.SideSold, record.Side)
	assert.Equal(t, int64(-2), record.Shares)
	assert.True(t, record.Total.Equal(decimal.NewFromInt(-320)))
}

func TestPlanSellErrors(t *testing.T) {
	tests := []struct {
		name   string
		held   int64
		shares int64
		want   error
	}{
		{name: "zero shares", held: 5, shares: 0, want: service.ErrInvalidShareCount},
		{name: "no position", held: 0, shares: 1, want: service.ErrNoPosition},
		{name: "exceeds holdings", held: 2, shares: 3, want: service.ErrExceedsHoldings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PlanSell(tt.held, quote("AAPL", "10"), tt.shares, at)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPlanSellAll(t *testing.T) {
	_, record, err := PlanSell(3, quote("AAPL", "10"), 3, at)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), record.Shares)
}

func TestFoldHoldings(t *testing.T) {
	records := []model.TransactionRecord{
		{Side: model.SideBought, Symbol: "AAPL", CompanyName: "Apple", Shares: 5, Total: decimal.NewFromInt(500)},
		{Side: model.SideBought, Symbol: "MSFT", CompanyName: "Microsoft", Shares: 2, Total: decimal.NewFromInt(600)},
		{Side: model.SideSold, Symbol: "AAPL", CompanyName: "Apple Inc.", Shares: -2, Total: decimal.NewFromInt(-240)},
		{Side: model.SideSold, Symbol: "MSFT", CompanyName: "Microsoft", Shares: -2, Total: decimal.NewFromInt(-700)},
	}

	holdings := FoldHoldings(records)
	require.Len(t, holdings, 1)

	aapl := holdings["AAPL"]
	assert.Equal(t, int64(3), aapl.Shares)
	assert.True(t, aapl.CostBasisTotal.Equal(decimal.NewFromInt(260)))
	assert.Equal(t, "Apple Inc.", aapl.CompanyName)

	assert.Empty(t, FoldHoldings(nil))
}

func TestValuate(t *testing.T) {
	holdings := map[string]model.Holding{
		"MSFT": {Symbol: "MSFT", Shares: 1},
		"AAPL": {Symbol: "AAPL", Shares: 3},
	}
	prices := map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("170"),
		"MSFT": decimal.RequireFromString("300.50"),
	}

	valuation, err := Valuate(7, decimal.NewFromInt(100), holdings, prices)
	require.NoError(t, err)

	require.Len(t, valuation.Positions, 2)
	assert.Equal(t, "AAPL", valuation.Positions[0].Symbol)
	assert.True(t, valuation.Positions[0].MarketValue.Equal(decimal.NewFromInt(510)))
	assert.Equal(t, "MSFT", valuation.Positions[1].Symbol)
	assert.True(t, valuation.PortfolioTotal.Equal(decimal.RequireFromString("810.50")))
	assert.True(t, valuation.GrandTotal.Equal(decimal.RequireFromString("910.50")))
	assert.Equal(t, int64(7), valuation.AccountID)
}

func TestValuateMissingPrice(t *testing.T) {
	holdings := map[string]model.Holding{"AAPL": {Symbol: "AAPL", Shares: 3}}

	_, err := Valuate(1, decimal.Zero, holdings, map[string]decimal.Decimal{})
	assert.ErrorIs(t, err, service.ErrQuoteUnavailable)

	var quoteErr *service.QuoteUnavailableError
	require.True(t, errors.As(err, &quoteErr))
	assert.Equal(t, "AAPL", quoteErr.Symbol)
}

func TestValuateEmpty(t *testing.T) {
	valuation, err := Valuate(1, decimal.NewFromInt(42), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, valuation.Positions)
	assert.True(t, valuation.PortfolioTotal.IsZero())
	assert.True(t, valuation.GrandTotal.Equal(decimal.NewFromInt(42)))
}

func TestBuySellRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(1, 10_000_00).Draw(t, "priceCents")
		shares := rapid.Int64Range(1, 1000).Draw(t, "shares")
		extra := rapid.Int64Range(0, 1_000_000).Draw(t, "extraCash")

		price := decimal.New(cents, -2)
		cash := price.Mul(decimal.NewFromInt(shares)).Add(decimal.NewFromInt(extra))
		q := model.Quote{Symbol: "AAPL", Price: price}

		buyDelta, buy, err := PlanBuy(cash, q, shares, at)
		if err != nil {
			t.Fatalf("buy: %v", err)
		}
		afterBuy := cash.Add(buyDelta)

		sellDelta, sell, err := PlanSell(buy.Shares, q, shares, at)
		if err != nil {
			t.Fatalf("sell: %v", err)
		}

		if !afterBuy.Add(sellDelta).Equal(cash) {
			t.Fatalf("cash %s not restored, got %s", cash, afterBuy.Add(sellDelta))
		}
		if len(FoldHoldings([]model.TransactionRecord{buy, sell})) != 0 {
			t.Fatalf("position should be closed")
		}
	})
}

// Random order streams never drive cash or any holding below zero, and value
// is conserved when every trade happens at one price.
func TestOrderStreamInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		symbols := []string{"AAPL", "MSFT", "NFLX"}
		prices := map[string]decimal.Decimal{}
		for _, s := range symbols {
			prices[s] = decimal.New(rapid.Int64Range(1, 50_000).Draw(t, "price-"+s), -2)
		}

		start := decimal.NewFromInt(rapid.Int64Range(0, 100_000).Draw(t, "cash"))
		cash := start
		var records []model.TransactionRecord

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			symbol := rapid.SampledFrom(symbols).Draw(t, fmt.Sprintf("symbol-%d", i))
			shares := rapid.Int64Range(-5, 50).Draw(t, fmt.Sprintf("shares-%d", i))
			q := model.Quote{Symbol: symbol, Price: prices[symbol]}

			var (
				delta  decimal.Decimal
				record model.TransactionRecord
				err    error
			)
			if rapid.Bool().Draw(t, fmt.Sprintf("buy-%d", i)) {
				delta, record, err = PlanBuy(cash, q, shares, at)
			} else {
				delta, record, err = PlanSell(FoldHoldings(records)[symbol].Shares, q, shares, at)
			}
			if err != nil {
				continue
			}

			cash = cash.Add(delta)
			records = append(records, record)

			if cash.IsNegative() {
				t.Fatalf("negative cash %s after %+v", cash, record)
			}
		}

		holdings := FoldHoldings(records)
		for symbol, h := range holdings {
			if h.Shares <= 0 {
				t.Fatalf("non-positive holding %s: %d", symbol, h.Shares)
			}
		}

		valuation, err := Valuate(1, cash, holdings, prices)
		if err != nil {
			t.Fatalf("valuate: %v", err)
		}
		if !valuation.GrandTotal.Equal(start) {
			t.Fatalf("value not conserved: start %s, grand total %s", start, valuation.GrandTotal)
		}
	})
}
