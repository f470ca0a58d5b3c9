package iexApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/KotFed0t/trade_ledger/internal/externalApi"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/model/iexModel"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/go-resty/resty/v2"
)

type IexApi struct {
	client *resty.Client
	token  string
}

func New(cfg *config.Config) *IexApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Iex.Url)
	return &IexApi{client: client, token: cfg.API.Iex.Token}
}

// Lookup fetches the latest price of symbol. Unknown symbols and quotes without
// a positive price are reported as externalApi.ErrNotFound.
func (a *IexApi) Lookup(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start IexApi.Lookup request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("symbol", symbol).
		SetQueryParam("token", a.token).
		Get("/stock/{symbol}/quote")

	if err != nil {
		slog.Error("error while dialing IexApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		slog.Debug("symbol not found in IexApi", slog.String("rqID", rqId), slog.String("symbol", symbol))
		return model.Quote{}, externalApi.ErrNotFound
	case resp.IsError():
		slog.Error("IexApi responded with error", slog.String("rqID", rqId), slog.Int("status", resp.StatusCode()))
		return model.Quote{}, fmt.Errorf("iex responded with status %d", resp.StatusCode())
	}

	iexQuote := iexModel.Quote{}
	err = json.Unmarshal(resp.Body(), &iexQuote)
	if err != nil {
		slog.Error("can't unmarshall response into iexModel.Quote", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	if !iexQuote.LatestPrice.IsPositive() {
		slog.Debug("IexApi returned no price", slog.String("rqID", rqId), slog.String("symbol", symbol))
		return model.Quote{}, externalApi.ErrNotFound
	}

	if iexQuote.Symbol == "" {
		iexQuote.Symbol = symbol
	}

	slog.Debug("IexApi.Lookup request complete", slog.String("rqID", rqId))

	return model.Quote{
		Symbol: iexQuote.Symbol,
		Name:   iexQuote.CompanyName,
		Price:  iexQuote.LatestPrice,
	}, nil
}
