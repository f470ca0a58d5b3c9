package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/trade_ledger/internal/scheduler"
	"github.com/google/subcommands"
)

type daemonCmd struct{}

func (*daemonCmd) Name() string     { return "daemon" }
func (*daemonCmd) Synopsis() string { return "run background jobs until interrupted" }
func (*daemonCmd) Usage() string {
	return `daemon

  Keeps the quote cache warm (when Redis is enabled) and removes expired
  reports from Google Drive (when uploads are enabled).
`
}

func (*daemonCmd) SetFlags(*flag.FlagSet) {}

func (c *daemonCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx, a, status := prepare(ctx, args)
	if a == nil {
		return status
	}

	sched, err := scheduler.New()
	if err != nil {
		return fail(err)
	}

	if a.cfg.Redis.Enabled {
		if err := sched.NewIntervalJob("warm quote cache", a.trading.WarmQuoteCache, a.cfg.Jobs.WarmQuoteCacheInterval, true); err != nil {
			return fail(err)
		}
	}

	if a.drive != nil {
		if err := sched.NewCrontabJob("cleanup reports", a.drive.DeleteOldFiles, a.cfg.Jobs.CleanupReportsCrontab, true); err != nil {
			return fail(err)
		}
	}

	sched.Start()
	slog.Info("daemon started")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := sched.Stop(); err != nil {
		slog.Error("scheduler shutdown error", slog.String("err", err.Error()))
	}
	slog.Info("daemon stopped")

	return subcommands.ExitSuccess
}
