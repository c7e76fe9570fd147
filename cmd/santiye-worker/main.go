package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"santiye/internal/cli"
	"santiye/internal/log"
	"santiye/internal/services"
	"santiye/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting santiye-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	writer, err := cli.InitSheets(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewSyncProcessor(repo, repo, repo, writer, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
		MaxRetries:   cfg.SyncMaxRetries,
	}, logger)
	syncWorker := worker.NewSyncWorker(processor, repo, writer, cfg.DueDigestDays, logger)

	scheduler := cron.New()
	if err := syncWorker.Schedule(ctx, scheduler, cfg.DueDigestSchedule, ""); err != nil {
		logger.Error("Failed to schedule check digest", log.FieldError, err)
		os.Exit(1)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	amqpClient := cli.InitPublisher(cfg, logger)
	if amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			err := amqpClient.Consume(gctx, syncWorker.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP consumption, relying on periodic drain", "interval", cfg.SyncInterval)
	}

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	// Publish today's digest at startup so the sheet is current after deploys.
	g.Go(func() error {
		if err := syncWorker.DueDigest(gctx, time.Now()); err != nil {
			logger.Error("Startup check digest failed", log.FieldError, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Sync processor shutdown", log.FieldError, err, log.FieldOperation, log.OpShutdown)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
