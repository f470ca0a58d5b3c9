package portfolioService

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KotFed0t/trade_ledger/data/repository/memory"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/trade_ledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]string
	errs   map[string]error
}

func (f *fakeQuotes) Lookup(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[symbol]; err != nil {
		return model.Quote{}, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return model.Quote{}, errors.New("no quote")
	}
	return model.Quote{Symbol: symbol, Price: decimal.RequireFromString(price)}, nil
}

type fakeStorage struct {
	uploaded map[string][]byte
}

func (f *fakeStorage) UploadFile(_ context.Context, content []byte, filename string) (string, error) {
	f.uploaded[filename] = content
	return "https://example.test/" + filename, nil
}

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func trade(side model.Side, symbol, name string, shares int64, price string, at time.Time) model.TransactionRecord {
	p := decimal.RequireFromString(price)
	return model.TransactionRecord{
		Side:        side,
		Symbol:      symbol,
		CompanyName: name,
		Shares:      shares,
		Price:       p,
		Total:       p.Mul(decimal.NewFromInt(shares)),
		ExecutedAt:  at,
	}
}

// seed builds an account holding 3 AAPL and 1 MSFT with NFLX fully sold.
func seed(t *testing.T) (*memory.Store, model.Account) {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	account, err := repo.InsertAccount(ctx, "alice", decimal.NewFromInt(10000))
	require.NoError(t, err)

	for _, record := range []model.TransactionRecord{
		trade(model.SideBought, "AAPL", "Apple", 5, "150", base),
		trade(model.SideBought, "NFLX", "Netflix", 2, "400", base.Add(time.Minute)),
		trade(model.SideBought, "MSFT", "Microsoft", 1, "300", base.Add(2*time.Minute)),
		trade(model.SideSold, "AAPL", "Apple Inc.", -2, "160", base.Add(3*time.Minute)),
		trade(model.SideSold, "NFLX", "Netflix", -2, "410", base.Add(4*time.Minute)),
	} {
		_, err = repo.CommitOrder(ctx, account.ID, record.Total.Neg(), record)
		require.NoError(t, err)
	}

	account, err = repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)

	return repo, account
}

func TestCurrentHoldings(t *testing.T) {
	ctx := context.Background()
	repo, account := seed(t)
	s := New(repo, &fakeQuotes{}, nil, nil)

	holdings, err := s.CurrentHoldings(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, int64(3), holdings["AAPL"].Shares)
	assert.True(t, holdings["AAPL"].CostBasisTotal.Equal(decimal.NewFromInt(430)))
	assert.Equal(t, "Apple Inc.", holdings["AAPL"].CompanyName)
	assert.Equal(t, int64(1), holdings["MSFT"].Shares)
	assert.NotContains(t, holdings, "NFLX")

	again, err := s.CurrentHoldings(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, holdings, again)

	symbols, err := s.SellableSymbols(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestTransactionHistory(t *testing.T) {
	ctx := context.Background()
	repo, account := seed(t)
	s := New(repo, &fakeQuotes{}, nil, nil)

	history, err := s.TransactionHistory(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].ExecutedAt.Before(history[i-1].ExecutedAt))
	}
	for _, record := range history {
		assert.True(t, record.Total.Equal(record.Price.Mul(decimal.NewFromInt(record.Shares))))
	}

	again, err := s.TransactionHistory(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, history, again)

	// callers own the returned slice
	history[0].Symbol = "XXX"
	fresh, err := s.TransactionHistory(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", fresh[0].Symbol)
}

func TestUnknownAccount(t *testing.T) {
	s := New(memory.New(), &fakeQuotes{}, nil, nil)

	_, err := s.CurrentHoldings(context.Background(), 42)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)

	_, err = s.TransactionHistory(context.Background(), 42)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestPortfolioValue(t *testing.T) {
	repo, account := seed(t)
	quotes := &fakeQuotes{prices: map[string]string{"AAPL": "170", "MSFT": "310.25"}}
	s := New(repo, quotes, nil, nil)

	valuation, err := s.PortfolioValue(context.Background(), account.ID)
	require.NoError(t, err)

	require.Len(t, valuation.Positions, 2)
	assert.Equal(t, "AAPL", valuation.Positions[0].Symbol)
	assert.True(t, valuation.Positions[0].MarketValue.Equal(decimal.NewFromInt(510)))
	assert.True(t, valuation.Positions[1].MarketValue.Equal(decimal.RequireFromString("310.25")))
	assert.True(t, valuation.PortfolioTotal.Equal(decimal.RequireFromString("820.25")))
	assert.True(t, valuation.Cash.Equal(account.Cash))
	assert.True(t, valuation.GrandTotal.Equal(account.Cash.Add(decimal.RequireFromString("820.25"))))
}

func TestPortfolioValueQuoteFailure(t *testing.T) {
	repo, account := seed(t)
	quotes := &fakeQuotes{
		prices: map[string]string{"AAPL": "170"},
		errs:   map[string]error{"MSFT": context.DeadlineExceeded},
	}
	s := New(repo, quotes, nil, nil)

	_, err := s.PortfolioValue(context.Background(), account.ID)
	assert.ErrorIs(t, err, service.ErrQuoteUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var quoteErr *service.QuoteUnavailableError
	require.True(t, errors.As(err, &quoteErr))
	assert.Equal(t, "MSFT", quoteErr.Symbol)
}

func TestExportReport(t *testing.T) {
	ctx := context.Background()
	repo, account := seed(t)
	quotes := &fakeQuotes{prices: map[string]string{"AAPL": "170", "MSFT": "300"}}
	storage := &fakeStorage{uploaded: map[string][]byte{}}
	s := New(repo, quotes, xslsxGenerator.New(), storage)
	s.now = func() time.Time { return base }

	report, err := s.ExportReport(ctx, account.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "portfolio_1_20240301_100000.xlsx", report.FileName)
	assert.NotEmpty(t, report.Content)
	assert.Empty(t, report.DownloadLink)
	assert.Empty(t, storage.uploaded)

	report, err = s.ExportReport(ctx, account.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/"+report.FileName, report.DownloadLink)
	assert.Contains(t, storage.uploaded, report.FileName)
}

func TestExportReportWithoutStorage(t *testing.T) {
	repo, account := seed(t)
	s := New(repo, &fakeQuotes{}, xslsxGenerator.New(), nil)

	_, err := s.ExportReport(context.Background(), account.ID, true)
	assert.ErrorIs(t, err, service.ErrUploadNotEnabled)
}
