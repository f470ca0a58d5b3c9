package textConverter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02 15:04:05"

// Usd renders an amount as dollars and cents, rounding half away from zero.
func Usd(amount decimal.Decimal) string {
	currency := money.GetCurrency(money.USD)
	cents := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

func Quote(quote model.Quote) string {
	return fmt.Sprintf("A share of %s (%s) costs %s.", quote.Name, quote.Symbol, Usd(quote.Price))
}

func Record(record model.TransactionRecord) string {
	verb := "Bought"
	shares := record.Shares
	if record.Side == model.SideSold {
		verb = "Sold"
		shares = -shares
	}
	return fmt.Sprintf("%s %d %s at %s, total %s.", verb, shares, record.Symbol, Usd(record.Price), Usd(record.Total.Abs()))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// Portfolio writes the holdings table followed by cash and grand total rows.
func Portfolio(w io.Writer, valuation model.Valuation) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "Symbol\tName\tShares\tPrice\tTOTAL\t")
	for _, position := range valuation.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n",
			position.Symbol,
			position.CompanyName,
			position.Shares,
			Usd(position.Price),
			Usd(position.MarketValue),
		)
	}
	fmt.Fprintf(tw, "CASH\t\t\t\t%s\t\n", Usd(valuation.Cash))
	fmt.Fprintf(tw, "\t\t\t\t%s\t\n", Usd(valuation.GrandTotal))

	return tw.Flush()
}

func Holdings(w io.Writer, holdings []model.Holding) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "Symbol\tName\tShares\tCost basis\t")
	for _, h := range holdings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", h.Symbol, h.CompanyName, h.Shares, Usd(h.CostBasisTotal))
	}

	return tw.Flush()
}

func History(w io.Writer, records []model.TransactionRecord) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "Symbol\tShares\tPrice\tTransacted\t")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n",
			record.Symbol,
			record.Shares,
			Usd(record.Price),
			record.ExecutedAt.UTC().Format(dateLayout),
		)
	}

	return tw.Flush()
}

func Accounts(w io.Writer, accounts []model.Account) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "ID\tUsername\tCash\tCreated\t")
	for _, account := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n",
			account.ID,
			account.Username,
			Usd(account.Cash),
			account.CreatedAt.UTC().Format(time.DateOnly),
		)
	}

	return tw.Flush()
}
