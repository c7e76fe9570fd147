package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"santiye/internal/cache"
	"santiye/internal/cli"
	apphttp "santiye/internal/http"
	"santiye/internal/log"
	"santiye/internal/pricematrix"
	"santiye/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitPublisher(cfg, logger)
	if amqpClient != nil {
		defer amqpClient.Close()
	}
	publisher := cli.Publisher(amqpClient)

	matrices := cache.NewLRUCache[pricematrix.Matrix](cfg.MatrixCacheSize, cfg.MatrixCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(matrices)
	caches.StartCleanup(cfg.MatrixCacheTTL)
	defer caches.Stop()

	invoices := services.NewInvoiceService(repo, repo, publisher, cli.InvoiceConfig(cfg), logger)
	quotes := services.NewQuoteService(repo, repo, publisher, matrices, logger)

	opts := apphttp.DefaultOptions(":" + cfg.Port)
	opts.CheckWindowDays = cfg.CheckWindowDays
	opts.TrustedProxies = cfg.TrustedProxies
	srv, err := apphttp.NewServer(opts, invoices, quotes, repo, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
	}()

	logger.Info("Starting santiye server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"amqp", amqpClient != nil,
		"tax_rate", cfg.TaxRate,
		"validation", cfg.InvoiceValidation)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
