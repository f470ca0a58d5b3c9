package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	report := model.PortfolioReport{
		Account: model.Account{ID: 1, Username: "alice"},
		Valuation: model.Valuation{
			AccountID: 1,
			Positions: []model.Position{{
				Holding: model.Holding{
					Symbol:         "AAPL",
					CompanyName:    "Apple Inc.",
					Shares:         3,
					CostBasisTotal: decimal.NewFromInt(450),
				},
				Price:       decimal.NewFromInt(170),
				MarketValue: decimal.NewFromInt(510),
			}},
			Cash:           decimal.NewFromInt(550),
			PortfolioTotal: decimal.NewFromInt(510),
			GrandTotal:     decimal.NewFromInt(1060),
		},
		History: []model.TransactionRecord{
			{Side: model.SideBought, Symbol: "AAPL", Shares: 3, Price: decimal.NewFromInt(150), Total: decimal.NewFromInt(450), ExecutedAt: at},
		},
	}

	content, ext, err := New().Generate(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PortfolioSheet, HistorySheet}, f.GetSheetList())

	portfolio, err := f.GetRows(PortfolioSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(portfolio), 3)
	assert.Equal(t, "Portfolio of alice", portfolio[0][0])
	assert.Equal(t, []string{"AAPL", "Apple Inc.", "3", "170", "510", "450"}, portfolio[2])

	total, err := f.GetCellValue(PortfolioSheet, "B8")
	require.NoError(t, err)
	assert.Equal(t, "1060", total)

	history, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"Bought", "AAPL", "3", "150", "450", "2024-03-01 10:30:00"}, history[2])
}
