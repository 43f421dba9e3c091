package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/shanehull/psxann/internal/config"
	"github.com/shanehull/psxann/internal/logging"
	"github.com/shanehull/psxann/internal/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	if cfg == nil {
		return
	}

	logging.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Run failed", "command", cfg.Command, "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	s, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	if c, ok := s.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("Failed to close store", "err", err)
			}
		}()
	}

	switch cfg.Command {
	case config.CommandSummary:
		return summarize(ctx, cfg.Summary, s)
	default:
		return scrape(ctx, cfg, store.NewMerger(s))
	}
}

func openStore(opts config.StoreOptions) (store.Store, error) {
	switch opts.Kind {
	case config.StoreSQLite:
		return store.OpenSQLite(opts.Path)
	default:
		return store.NewCSVStore(opts.Path)
	}
}
