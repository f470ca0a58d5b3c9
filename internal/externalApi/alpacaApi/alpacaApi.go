package alpacaApi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/KotFed0t/trade_ledger/internal/externalApi"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

type assetClient interface {
	GetAsset(symbol string) (*alpaca.Asset, error)
}

type tradeClient interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// AlpacaApi quotes a symbol with the asset name from the trading API and the
// price of the latest trade from the market data API.
type AlpacaApi struct {
	assets assetClient
	trades tradeClient
}

func New(cfg *config.Config) *AlpacaApi {
	dataOpts := marketdata.ClientOpts{
		APIKey:    cfg.API.Alpaca.APIKey,
		APISecret: cfg.API.Alpaca.APISecret,
	}
	if cfg.API.Alpaca.DataURL != "" {
		dataOpts.BaseURL = cfg.API.Alpaca.DataURL
	}

	return &AlpacaApi{
		assets: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.API.Alpaca.APIKey,
			APISecret: cfg.API.Alpaca.APISecret,
			BaseURL:   cfg.API.Alpaca.BaseURL,
		}),
		trades: marketdata.NewClient(dataOpts),
	}
}

type lookupResult struct {
	quote model.Quote
	err   error
}

// Lookup honours ctx even though the SDK calls do not take one.
func (a *AlpacaApi) Lookup(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start AlpacaApi.Lookup request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	done := make(chan lookupResult, 1)
	go func() {
		quote, err := a.lookup(symbol)
		done <- lookupResult{quote: quote, err: err}
	}()

	select {
	case <-ctx.Done():
		slog.Error("AlpacaApi.Lookup cancelled", slog.String("rqID", rqId), slog.String("err", ctx.Err().Error()))
		return model.Quote{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, externalApi.ErrNotFound) {
				slog.Debug("symbol not found in AlpacaApi", slog.String("rqID", rqId), slog.String("symbol", symbol))
			} else {
				slog.Error("error while requesting AlpacaApi", slog.String("rqID", rqId), slog.String("err", res.err.Error()))
			}
			return model.Quote{}, res.err
		}

		slog.Debug("AlpacaApi.Lookup request complete", slog.String("rqID", rqId))
		return res.quote, nil
	}
}

func (a *AlpacaApi) lookup(symbol string) (model.Quote, error) {
	asset, err := a.assets.GetAsset(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return model.Quote{}, externalApi.ErrNotFound
		}
		return model.Quote{}, err
	}
	if asset == nil || string(asset.Status) != "active" {
		return model.Quote{}, externalApi.ErrNotFound
	}

	trade, err := a.trades.GetLatestTrade(asset.Symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return model.Quote{}, err
	}
	if trade == nil || trade.Price <= 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	return model.Quote{
		Symbol: asset.Symbol,
		Name:   asset.Name,
		Price:  decimal.NewFromFloat(trade.Price),
	}, nil
}
