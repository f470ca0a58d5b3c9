package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/xuri/excelize/v2"
)

const (
	PortfolioSheet = "Portfolio"
	HistorySheet   = "History"

	dateLayout = "2006-01-02 15:04:05"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate renders the valuation on one sheet and the full history on another.
func (g *XSLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("accountID", report.Account.ID))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err = f.SetSheetName("Sheet1", PortfolioSheet); err != nil {
		return nil, "", err
	}
	if err = g.fillPortfolioSheet(f, report); err != nil {
		slog.Error("got error while filling portfolio sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if _, err = f.NewSheet(HistorySheet); err != nil {
		return nil, "", err
	}
	if err = g.fillHistorySheet(f, report.History); err != nil {
		slog.Error("got error while filling history sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) sectionTitle(f *excelize.File, sheet, from, to, title, color string) error {
	if err := f.MergeCell(sheet, from, to); err != nil {
		return err
	}

	if err := f.SetCellStr(sheet, from, title); err != nil {
		return err
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, from, from, styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	return nil
}

func (g *XSLSXGenerator) fillPortfolioSheet(f *excelize.File, report model.PortfolioReport) error {
	sheet := PortfolioSheet
	valuation := report.Valuation

	title := fmt.Sprintf("Portfolio of %s", report.Account.Username)
	if err := g.sectionTitle(f, sheet, "A1", "F1", title, "#cfe2f3"); err != nil {
		return err
	}

	header := []string{"Symbol", "Name", "Shares", "Price", "Total", "Cost basis"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheet, cell, h)
	}

	row := 3
	for _, position := range valuation.Positions {
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), position.Symbol)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), position.CompanyName)
		_ = f.SetCellInt(sheet, fmt.Sprintf("C%d", row), position.Shares)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), position.Price.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), position.MarketValue.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), position.CostBasisTotal.InexactFloat64())
		row++
	}

	row++
	if err := g.sectionTitle(f, sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), "Summary", "#d9ead3"); err != nil {
		return err
	}

	summary := []struct {
		label string
		value float64
	}{
		{"Cash", valuation.Cash.InexactFloat64()},
		{"Stocks", valuation.PortfolioTotal.InexactFloat64()},
		{"Total", valuation.GrandTotal.InexactFloat64()},
	}
	for _, line := range summary {
		row++
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), line.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.value)
	}

	return nil
}

func (g *XSLSXGenerator) fillHistorySheet(f *excelize.File, history []model.TransactionRecord) error {
	sheet := HistorySheet

	if err := g.sectionTitle(f, sheet, "A1", "F1", "History", "#cccccc"); err != nil {
		return err
	}

	header := []string{"Side", "Symbol", "Shares", "Price", "Total", "Transacted"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheet, cell, h)
	}

	for i, record := range history {
		row := i + 3
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), string(record.Side))
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), record.Symbol)
		_ = f.SetCellInt(sheet, fmt.Sprintf("C%d", row), record.Shares)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), record.Price.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), record.Total.InexactFloat64())
		_ = f.SetCellStr(sheet, fmt.Sprintf("F%d", row), record.ExecutedAt.UTC().Format(dateLayout))
	}

	return nil
}
