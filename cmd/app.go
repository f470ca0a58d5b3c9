package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/KotFed0t/trade_ledger/data"
	"github.com/KotFed0t/trade_ledger/data/cache"
	"github.com/KotFed0t/trade_ledger/data/repository/sqlStore"
	"github.com/KotFed0t/trade_ledger/internal/externalApi/alpacaApi"
	"github.com/KotFed0t/trade_ledger/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/trade_ledger/internal/externalApi/iexApi"
	"github.com/KotFed0t/trade_ledger/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/trade_ledger/internal/service/portfolioService"
	"github.com/KotFed0t/trade_ledger/internal/service/tradingService"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type app struct {
	cfg       *config.Config
	trading   *tradingService.TradingService
	portfolio *portfolioService.PortfolioService
	drive     *googleDriveApi.GoogleDriveApi

	db          *sqlx.DB
	redisClient *redis.Client
}

// appLoader connects to the backends the first time a command needs them,
// so help and flag listing work without a database.
type appLoader struct {
	cfg  *config.Config
	once sync.Once
	app  *app
	err  error
}

func newAppLoader(cfg *config.Config) *appLoader {
	return &appLoader{cfg: cfg}
}

func (l *appLoader) get(ctx context.Context) (*app, error) {
	l.once.Do(func() {
		l.app, l.err = newApp(ctx, l.cfg)
	})
	return l.app, l.err
}

func (l *appLoader) close() {
	if l.app == nil {
		return
	}
	if l.app.redisClient != nil {
		_ = l.app.redisClient.Close()
	}
	if err := l.app.db.Close(); err != nil {
		slog.Error("failed to close db", slog.String("err", err.Error()))
	}
}

func newQuoteProvider(cfg *config.Config) (tradingService.QuoteProvider, error) {
	switch cfg.API.QuoteProvider {
	case config.QuoteProviderIex:
		return iexApi.New(cfg), nil
	case config.QuoteProviderAlpaca:
		return alpacaApi.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", cfg.API.QuoteProvider)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	quotes, err := newQuoteProvider(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	a.db = data.NewDBClient(cfg)
	repo := sqlStore.New(a.db)

	var quoteCache tradingService.Cache
	if cfg.Redis.Enabled {
		a.redisClient = data.NewRedisClient(cfg)
		quoteCache = cache.NewRedisCache(a.redisClient, cfg)
	}

	var storage portfolioService.CloudStorage
	if cfg.GoogleDrive.Enabled {
		a.drive, err = googleDriveApi.New(ctx, cfg)
		if err != nil {
			_ = a.db.Close()
			return nil, err
		}
		storage = a.drive
	}

	a.trading = tradingService.New(repo, quotes, quoteCache, cfg)
	a.portfolio = portfolioService.New(repo, quotes, xslsxGenerator.New(), storage)

	return a, nil
}
