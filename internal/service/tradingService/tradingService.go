package tradingService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/accounting"
	"github.com/KotFed0t/trade_ledger/internal/externalApi"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/service"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/shopspring/decimal"
)

type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (model.Quote, error)
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

type Repository interface {
	WithinAccountTransaction(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error
	GetAccount(ctx context.Context, accountID int64) (model.Account, error)
	HeldShares(ctx context.Context, accountID int64, symbol string) (int64, error)
	CommitOrder(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, record model.TransactionRecord) (model.TransactionRecord, error)
	InsertAccount(ctx context.Context, username string, cash decimal.Decimal) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	DeleteAccount(ctx context.Context, accountID int64) error
	HeldSymbols(ctx context.Context) ([]string, error)
}

type TradingService struct {
	repo        Repository
	cache       Cache
	quotes      QuoteProvider
	openingCash decimal.Decimal
	now         func() time.Time
}

// New wires the service. cache may be nil, quotes are then always fetched from the provider.
func New(repo Repository, quotes QuoteProvider, cache Cache, cfg *config.Config) *TradingService {
	return &TradingService{
		repo:        repo,
		cache:       cache,
		quotes:      quotes,
		openingCash: cfg.Accounts.OpeningCash,
		now:         time.Now,
	}
}

// ExecuteBuy buys shares of symbol at the price quoted right now.
func (s *TradingService) ExecuteBuy(ctx context.Context, accountID int64, symbol string, shares int64) (record model.TransactionRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ExecuteBuy"
	symbol = accounting.NormalizeSymbol(symbol)

	slog.Info("ExecuteBuy start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID), slog.String("symbol", symbol), slog.Int64("shares", shares))
	defer func() {
		if err != nil {
			slog.Error("ExecuteBuy failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Info("ExecuteBuy completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("transactionID", record.ID), slog.String("total", record.Total.String()))
		}
	}()

	if shares <= 0 {
		return model.TransactionRecord{}, service.ErrInvalidShareCount
	}

	quote, err := s.freshQuote(ctx, symbol)
	if err != nil {
		return model.TransactionRecord{}, err
	}

	err = s.repo.WithinAccountTransaction(ctx, accountID, func(ctx context.Context) error {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		delta, planned, err := accounting.PlanBuy(account.Cash, quote, shares, s.now())
		if err != nil {
			return err
		}

		record, err = s.repo.CommitOrder(ctx, accountID, delta, planned)
		return err
	})
	if err != nil {
		return model.TransactionRecord{}, service.FromStoreErr(err)
	}

	return record, nil
}

// ExecuteSell sells shares of symbol at the price quoted right now.
func (s *TradingService) ExecuteSell(ctx context.Context, accountID int64, symbol string, shares int64) (record model.TransactionRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ExecuteSell"
	symbol = accounting.NormalizeSymbol(symbol)

	slog.Info("ExecuteSell start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID), slog.String("symbol", symbol), slog.Int64("shares", shares))
	defer func() {
		if err != nil {
			slog.Error("ExecuteSell failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Info("ExecuteSell completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("transactionID", record.ID), slog.String("total", record.Total.String()))
		}
	}()

	if shares <= 0 {
		return model.TransactionRecord{}, service.ErrInvalidShareCount
	}

	quote, err := s.freshQuote(ctx, symbol)
	if err != nil {
		return model.TransactionRecord{}, err
	}

	err = s.repo.WithinAccountTransaction(ctx, accountID, func(ctx context.Context) error {
		held, err := s.repo.HeldShares(ctx, accountID, symbol)
		if err != nil {
			return err
		}

		delta, planned, err := accounting.PlanSell(held, quote, shares, s.now())
		if err != nil {
			return err
		}

		record, err = s.repo.CommitOrder(ctx, accountID, delta, planned)
		return err
	})
	if err != nil {
		return model.TransactionRecord{}, service.FromStoreErr(err)
	}

	return record, nil
}

// freshQuote always goes to the provider; orders never use cached prices.
func (s *TradingService) freshQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if symbol == "" {
		return model.Quote{}, service.ErrSymbolNotFound
	}

	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.Quote{}, fmt.Errorf("%w: %s", service.ErrSymbolNotFound, symbol)
		}
		return model.Quote{}, &service.QuoteUnavailableError{Symbol: symbol, Err: err}
	}

	if !quote.Price.IsPositive() {
		return model.Quote{}, &service.QuoteUnavailableError{Symbol: symbol, Err: fmt.Errorf("non-positive price %s", quote.Price)}
	}

	// holdings are keyed by the symbol the user asked for
	quote.Symbol = symbol

	return quote, nil
}

// Quote is the display lookup. It may answer from the cache.
func (s *TradingService) Quote(ctx context.Context, symbol string) (quote model.Quote, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.Quote"
	symbol = accounting.NormalizeSymbol(symbol)

	slog.Debug("Quote start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("Quote finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	if s.cache != nil && symbol != "" {
		quote, err = s.cache.GetQuote(ctx, symbol)
		if err == nil {
			return quote, nil
		}
		slog.Debug("can't get quote from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	quote, err = s.freshQuote(ctx, symbol)
	if err != nil {
		slog.Warn("can't get quote", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Quote{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetQuotes(ctx, []model.Quote{quote}); err != nil {
			slog.Warn("can't put quote to cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	return quote, nil
}

// WarmQuoteCache refreshes cached quotes of every symbol somebody holds.
func (s *TradingService) WarmQuoteCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.WarmQuoteCache"

	if s.cache == nil {
		return nil
	}

	symbols, err := s.repo.HeldSymbols(ctx)
	if err != nil {
		slog.Error("got error from repo.HeldSymbols", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return service.FromStoreErr(err)
	}

	quotes := make([]model.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := s.freshQuote(ctx, symbol)
		if err != nil {
			slog.Warn("skip symbol while warming cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
			continue
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil
	}

	return s.cache.SetQuotes(ctx, quotes)
}

func (s *TradingService) RegisterAccount(ctx context.Context, username string) (account model.Account, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.RegisterAccount"
	username = strings.TrimSpace(username)

	slog.Info("RegisterAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Info("RegisterAccount finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", account.ID))
	}()

	if username == "" {
		return model.Account{}, service.ErrInvalidUsername
	}

	account, err = s.repo.InsertAccount(ctx, username, s.openingCash)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.Account{}, fmt.Errorf("%w: %s", service.ErrAccountExists, username)
		}
		slog.Error("got error from repo.InsertAccount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Account{}, service.FromStoreErr(err)
	}

	return account, nil
}

func (s *TradingService) GetAccount(ctx context.Context, accountID int64) (model.Account, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return model.Account{}, service.FromStoreErr(err)
	}
	return account, nil
}

func (s *TradingService) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		slog.Error("got error from repo.ListAccounts", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return nil, service.FromStoreErr(err)
	}
	return accounts, nil
}

// DeleteAccount removes the account together with its transaction log.
func (s *TradingService) DeleteAccount(ctx context.Context, accountID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.DeleteAccount"

	slog.Info("DeleteAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))

	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		slog.Error("got error from repo.DeleteAccount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return service.FromStoreErr(err)
	}

	slog.Info("DeleteAccount completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}
