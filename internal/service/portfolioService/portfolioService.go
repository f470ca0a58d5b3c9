package portfolioService

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/accounting"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/internal/service"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/shopspring/decimal"
)

type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (model.Quote, error)
}

type Repository interface {
	WithinSnapshot(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error
	GetAccount(ctx context.Context, accountID int64) (model.Account, error)
	ReadRecords(ctx context.Context, accountID int64) ([]model.TransactionRecord, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, content []byte, filename string) (downloadLink string, err error)
}

// PortfolioService projects holdings and valuations out of the transaction log. It never writes.
type PortfolioService struct {
	repo      Repository
	quotes    QuoteProvider
	generator ReportGenerator
	storage   CloudStorage
	now       func() time.Time
}

// New wires the service. storage may be nil when uploads are disabled.
func New(repo Repository, quotes QuoteProvider, generator ReportGenerator, storage CloudStorage) *PortfolioService {
	return &PortfolioService{
		repo:      repo,
		quotes:    quotes,
		generator: generator,
		storage:   storage,
		now:       time.Now,
	}
}

// snapshot reads the balance and the log together so they describe the same moment.
// It does not wait for in-flight orders of the account.
func (s *PortfolioService) snapshot(ctx context.Context, accountID int64) (account model.Account, records []model.TransactionRecord, err error) {
	err = s.repo.WithinSnapshot(ctx, accountID, func(ctx context.Context) error {
		account, err = s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		records, err = s.repo.ReadRecords(ctx, accountID)
		return err
	})
	if err != nil {
		return model.Account{}, nil, service.FromStoreErr(err)
	}

	return account, records, nil
}

func (s *PortfolioService) CurrentHoldings(ctx context.Context, accountID int64) (holdings map[string]model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.CurrentHoldings"

	slog.Debug("CurrentHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))
	defer func() {
		if err != nil {
			slog.Error("CurrentHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("CurrentHoldings completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("symbols", len(holdings)))
		}
	}()

	_, records, err := s.snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return accounting.FoldHoldings(records), nil
}

func (s *PortfolioService) SellableSymbols(ctx context.Context, accountID int64) ([]string, error) {
	holdings, err := s.CurrentHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return accounting.SortedSymbols(holdings), nil
}

// TransactionHistory returns the log oldest first.
func (s *PortfolioService) TransactionHistory(ctx context.Context, accountID int64) (history []model.TransactionRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.TransactionHistory"

	slog.Debug("TransactionHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))
	defer func() {
		if err != nil {
			slog.Error("TransactionHistory failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("TransactionHistory completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("records", len(history)))
		}
	}()

	_, history, err = s.snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return history, nil
}

// PortfolioValue prices every holding with a fresh quote. One missing quote fails the whole valuation.
func (s *PortfolioService) PortfolioValue(ctx context.Context, accountID int64) (valuation model.Valuation, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.PortfolioValue"

	slog.Debug("PortfolioValue start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID))
	defer func() {
		if err != nil {
			slog.Error("PortfolioValue failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("PortfolioValue completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("grandTotal", valuation.GrandTotal.String()))
		}
	}()

	account, records, err := s.snapshot(ctx, accountID)
	if err != nil {
		return model.Valuation{}, err
	}

	return s.valuate(ctx, account, accounting.FoldHoldings(records))
}

func (s *PortfolioService) valuate(ctx context.Context, account model.Account, holdings map[string]model.Holding) (model.Valuation, error) {
	prices := make(map[string]decimal.Decimal, len(holdings))
	for _, symbol := range accounting.SortedSymbols(holdings) {
		quote, err := s.quotes.Lookup(ctx, symbol)
		if err != nil {
			return model.Valuation{}, &service.QuoteUnavailableError{Symbol: symbol, Err: err}
		}
		prices[symbol] = quote.Price
	}

	return accounting.Valuate(account.ID, account.Cash, holdings, prices)
}

// ExportReport renders the valuation and history to a spreadsheet and, when upload is set,
// publishes it to cloud storage.
func (s *PortfolioService) ExportReport(ctx context.Context, accountID int64, upload bool) (report model.Report, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportReport"

	slog.Info("ExportReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", accountID), slog.Bool("upload", upload))
	defer func() {
		if err != nil {
			slog.Error("ExportReport failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Info("ExportReport completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileName", report.FileName))
		}
	}()

	if upload && s.storage == nil {
		return model.Report{}, service.ErrUploadNotEnabled
	}

	account, records, err := s.snapshot(ctx, accountID)
	if err != nil {
		return model.Report{}, err
	}

	valuation, err := s.valuate(ctx, account, accounting.FoldHoldings(records))
	if err != nil {
		return model.Report{}, err
	}

	content, ext, err := s.generator.Generate(ctx, model.PortfolioReport{
		Account:   account,
		Valuation: valuation,
		History:   records,
	})
	if err != nil {
		return model.Report{}, fmt.Errorf("generate report: %w", err)
	}

	report = model.Report{
		FileName: fmt.Sprintf("portfolio_%d_%s%s", account.ID, s.now().UTC().Format("20060102_150405"), ext),
		Content:  content,
	}

	if upload {
		report.DownloadLink, err = s.storage.UploadFile(ctx, content, report.FileName)
		if err != nil {
			return model.Report{}, fmt.Errorf("upload report: %w", err)
		}
	}

	return report, nil
}
