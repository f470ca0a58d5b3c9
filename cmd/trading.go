package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/KotFed0t/trade_ledger/internal/converter/textConverter"
	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "look up the current price of a symbol" }
func (*quoteCmd) Usage() string {
	return `quote <symbol>
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("exactly one symbol is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	quote, err := a.trading.Quote(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}

	fmt.Println(textConverter.Quote(quote))
	return subcommands.ExitSuccess
}

type orderFlags struct {
	account int64
	symbol  string
	shares  int64
}

func (o *orderFlags) set(f *flag.FlagSet) {
	f.Int64Var(&o.account, "account", 0, "account id (required)")
	f.StringVar(&o.symbol, "symbol", "", "stock symbol (required)")
	f.Int64Var(&o.shares, "shares", 0, "number of shares, a positive integer (required)")
}

func (o *orderFlags) validate() error {
	switch {
	case o.account <= 0:
		return fmt.Errorf("-account is required")
	case o.symbol == "":
		return fmt.Errorf("-symbol is required")
	case o.shares <= 0:
		return fmt.Errorf("-shares must be a positive integer")
	}
	return nil
}

type buyCmd struct {
	orderFlags
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares at the current price" }
func (*buyCmd) Usage() string {
	return `buy -account <id> -symbol <symbol> -shares <n>
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *buyCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if err := c.validate(); err != nil {
		return usage(err.Error())
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	record, err := a.trading.ExecuteBuy(ctx, c.account, c.symbol, c.shares)
	if err != nil {
		return fail(err)
	}

	fmt.Println(textConverter.Record(record))
	return subcommands.ExitSuccess
}

type sellCmd struct {
	orderFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell held shares at the current price" }
func (*sellCmd) Usage() string {
	return `sell -account <id> -symbol <symbol> -shares <n>
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *sellCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if err := c.validate(); err != nil {
		return usage(err.Error())
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	record, err := a.trading.ExecuteSell(ctx, c.account, c.symbol, c.shares)
	if err != nil {
		return fail(err)
	}

	fmt.Println(textConverter.Record(record))
	return subcommands.ExitSuccess
}
