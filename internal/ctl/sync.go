package ctl

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"santiye/internal/cli"
	"santiye/internal/config"
	"santiye/internal/log"
	"santiye/internal/services"
	"santiye/internal/storage"
)

type syncCmd struct {
	output
	dbFlag
	retryFailed bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "write pending invoices and quotes to the spreadsheet now" }
func (*syncCmd) Usage() string {
	return `santiyectl sync [-db <path>] [-retry-failed]

  Drains the sheet sync queue once using the configured spreadsheet, then
  prints the queue counters. -retry-failed first moves parked rows back to
  pending.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	c.setDBFlag(f)
	f.BoolVar(&c.retryFailed, "retry-failed", false, "Requeue rows that exhausted their retries.")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentCLI, Output: os.Stderr})

	repo, err := c.open()
	if err != nil {
		return failf("%v", err)
	}
	defer repo.Close()

	if c.retryFailed {
		n, err := repo.RetryFailedSyncs(ctx)
		if err != nil {
			return failf("%v", err)
		}
		fmt.Fprintf(c.w(), "requeued %d failed rows\n", n)
	}

	writer, err := cli.InitSheets(ctx, cfg, logger)
	if err != nil {
		return failf("%v", err)
	}
	processor := services.NewSyncProcessor(repo, repo, repo, writer, services.SyncProcessorConfig{
		BatchSize:  cfg.SyncBatchSize,
		MaxRetries: cfg.SyncMaxRetries,
	}, logger)

	synced, err := processor.Drain(ctx)
	if err != nil {
		return failf("%v", err)
	}
	stats, err := repo.SyncStats(ctx)
	if err != nil {
		return failf("%v", err)
	}
	printStats(c.output, synced, stats)
	return subcommands.ExitSuccess
}

func printStats(o output, synced int, s storage.SyncStats) {
	fmt.Fprintf(o.w(), "synced %d rows; pending %d, processing %d, completed %d, failed %d\n",
		synced, s.Pending, s.Processing, s.Completed, s.Failed)
}
