package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/KotFed0t/trade_ledger/internal/converter/textConverter"
	"github.com/google/subcommands"
)

type registerCmd struct {
	username string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "open a new account with the opening cash balance" }
func (*registerCmd) Usage() string {
	return `register -username <name>

  Opens an account. Usernames are unique.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "account username (required)")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.username) == "" {
		return usage("-username is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	account, err := a.trading.RegisterAccount(ctx, c.username)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Registered account %d for %s with %s.\n", account.ID, account.Username, textConverter.Usd(account.Cash))
	return subcommands.ExitSuccess
}

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list all accounts" }
func (*accountsCmd) Usage() string {
	return `accounts
`
}

func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	accounts, err := a.trading.ListAccounts(ctx)
	if err != nil {
		return fail(err)
	}

	if err := textConverter.Accounts(os.Stdout, accounts); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type deleteAccountCmd struct {
	account int64
}

func (*deleteAccountCmd) Name() string     { return "delete-account" }
func (*deleteAccountCmd) Synopsis() string { return "remove an account and its whole transaction history" }
func (*deleteAccountCmd) Usage() string {
	return `delete-account -account <id>

  The account's transactions are deleted with it.
`
}

func (c *deleteAccountCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "account id (required)")
}

func (c *deleteAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.account <= 0 {
		return usage("-account is required")
	}

	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	if err := a.trading.DeleteAccount(ctx, c.account); err != nil {
		return fail(err)
	}

	fmt.Printf("Deleted account %d.\n", c.account)
	return subcommands.ExitSuccess
}
