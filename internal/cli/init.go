// Package cli holds the bootstrap shared by cmd/santiye, cmd/santiye-worker
// and cmd/santiyectl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"santiye/internal/amqp"
	"santiye/internal/config"
	"santiye/internal/core"
	"santiye/internal/invoice"
	"santiye/internal/log"
	"santiye/internal/services"
	"santiye/internal/sheets"
	gsheet "santiye/internal/sheets/google"
	"santiye/internal/sheets/memory"
	"santiye/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the database, running pending migrations first.
// Exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitSheets returns the Google Sheets writer when a spreadsheet is
// configured and the in-memory store otherwise.
func InitSheets(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Writer, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled, rows are kept in memory")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		InvoicesSheet:   cfg.InvoicesSheetName,
		QuotesSheet:     cfg.QuotesSheetName,
		ChecksSheet:     cfg.ChecksSheetName,
		CredentialsJSON: []byte(cfg.GoogleCredentialsJSON),
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// InitPublisher connects to the broker when AMQP_URL is set. The returned
// client is nil when messaging is disabled or the broker is unreachable;
// the server then relies on the worker's periodic drain.
func InitPublisher(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without sync messages", log.FieldError, err)
		return nil
	}
	return client
}

// Publisher converts a possibly nil client into the services port without
// producing a non-nil interface holding a nil pointer.
func Publisher(client *amqp.Client) services.Publisher {
	if client == nil {
		return nil
	}
	return client
}

// InvoiceConfig maps the configuration onto the invoice service defaults.
func InvoiceConfig(cfg *config.Config) services.InvoiceConfig {
	mode := invoice.Strict
	if cfg.InvoiceValidation == "permissive" {
		mode = invoice.Permissive
	}
	return services.InvoiceConfig{
		TaxRate:  cfg.TaxRate,
		Split:    core.SharedSplit{PartyA: cfg.SharedSplitA, PartyB: cfg.SharedSplitB},
		Currency: cfg.DefaultCurrency,
		Mode:     mode,
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
