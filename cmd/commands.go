package main

import (
	"context"
	"fmt"
	"os"

	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/google/subcommands"
)

// prepare tags ctx with a request id and connects the backends.
func prepare(ctx context.Context, args []interface{}) (context.Context, *app, subcommands.ExitStatus) {
	ctx = utils.CreateCtxWithRqID(ctx)

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: application is not configured")
		return ctx, nil, subcommands.ExitFailure
	}
	loader, ok := args[0].(*appLoader)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: application is not configured")
		return ctx, nil, subcommands.ExitFailure
	}

	a, err := loader.get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ctx, nil, subcommands.ExitFailure
	}

	return ctx, a, subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	return subcommands.ExitUsageError
}
