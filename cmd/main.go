package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/google/subcommands"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.String("storage", cfg.Storage.Driver), slog.String("quoteProvider", cfg.API.QuoteProvider))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for group, cmds := range commands {
		for _, c := range cmds {
			commander.Register(c, group)
		}
	}

	flag.Parse()

	loader := newAppLoader(cfg)
	status := commander.Execute(context.Background(), loader)
	loader.close()

	os.Exit(int(status))
}

var commands = map[string][]subcommands.Command{
	"accounts":  {&registerCmd{}, &accountsCmd{}, &deleteAccountCmd{}},
	"trading":   {&quoteCmd{}, &buyCmd{}, &sellCmd{}},
	"portfolio": {&holdingsCmd{}, &portfolioCmd{}, &historyCmd{}, &exportCmd{}},
	"service":   {&daemonCmd{}},
}

// setupLogger writes JSON logs to stderr, stdout belongs to command output.
func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
