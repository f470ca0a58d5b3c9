package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KotFed0t/trade_ledger/internal/accounting"
	"github.com/KotFed0t/trade_ledger/internal/converter/textConverter"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/google/subcommands"
)

type accountFlag struct {
	account int64
}

func (c *accountFlag) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "account id (required)")
}

type holdingsCmd struct {
	accountFlag
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show held shares and their cost basis" }
func (*holdingsCmd) Usage() string {
	return `holdings -account <id>
`
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.account <= 0 {
		return usage("-account is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	holdings, err := a.portfolio.CurrentHoldings(ctx, c.account)
	if err != nil {
		return fail(err)
	}

	sorted := make([]model.Holding, 0, len(holdings))
	for _, symbol := range accounting.SortedSymbols(holdings) {
		sorted = append(sorted, holdings[symbol])
	}

	if err := textConverter.Holdings(os.Stdout, sorted); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type portfolioCmd struct {
	accountFlag
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "value the portfolio at current prices" }
func (*portfolioCmd) Usage() string {
	return `portfolio -account <id>
`
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.account <= 0 {
		return usage("-account is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	valuation, err := a.portfolio.PortfolioValue(ctx, c.account)
	if err != nil {
		return fail(err)
	}

	if err := textConverter.Portfolio(os.Stdout, valuation); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	accountFlag
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list every transaction, oldest first" }
func (*historyCmd) Usage() string {
	return `history -account <id>
`
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.account <= 0 {
		return usage("-account is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	history, err := a.portfolio.TransactionHistory(ctx, c.account)
	if err != nil {
		return fail(err)
	}

	if err := textConverter.History(os.Stdout, history); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	accountFlag
	dir    string
	upload bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the portfolio and history to a spreadsheet" }
func (*exportCmd) Usage() string {
	return `export -account <id> [-dir <path>] [-upload]

  Writes an .xlsx report into dir. With -upload the file is also published to
  Google Drive and a share link is printed.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.accountFlag.SetFlags(f)
	f.StringVar(&c.dir, "dir", ".", "directory to write the report into")
	f.BoolVar(&c.upload, "upload", false, "upload the report to Google Drive")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.account <= 0 {
		return usage("-account is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	report, err := a.portfolio.ExportReport(ctx, c.account, c.upload)
	if err != nil {
		return fail(err)
	}

	path := filepath.Join(c.dir, report.FileName)
	if err := os.WriteFile(path, report.Content, 0o644); err != nil {
		return fail(err)
	}

	fmt.Printf("Report written to %s\n", path)
	if report.DownloadLink != "" {
		fmt.Printf("Download link: %s\n", report.DownloadLink)
	}
	return subcommands.ExitSuccess
}
