package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port            string
	TrustedProxies  []string
	CheckWindowDays int

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID   string
	InvoicesSheetName     string
	QuotesSheetName       string
	ChecksSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Invoice arithmetic
	TaxRate           float64
	SharedSplitA      float64
	SharedSplitB      float64
	DefaultCurrency   string
	InvoiceValidation string

	// Price matrix
	MatrixCacheTTL  time.Duration
	MatrixCacheSize int

	// Worker
	SyncInterval      time.Duration
	SyncBatchSize     int
	SyncMaxRetries    int
	DueDigestSchedule string
	DueDigestDays     int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),
		CheckWindowDays: getEnvInt("CHECK_WINDOW_DAYS", 30),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/santiye.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "santiye"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sheets_sync"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		InvoicesSheetName:     getEnv("GOOGLE_INVOICES_SHEET_NAME", "Faturalar"),
		QuotesSheetName:       getEnv("GOOGLE_QUOTES_SHEET_NAME", "Fiyatlar"),
		ChecksSheetName:       getEnv("GOOGLE_CHECKS_SHEET_NAME", "Cekler"),
		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		TaxRate:           getEnvFloat("TAX_RATE", 0.20),
		SharedSplitA:      getEnvFloat("SHARED_SPLIT_A", 0.60),
		SharedSplitB:      getEnvFloat("SHARED_SPLIT_B", 0.40),
		DefaultCurrency:   strings.ToUpper(getEnv("DEFAULT_CURRENCY", "TRY")),
		InvoiceValidation: strings.ToLower(getEnv("INVOICE_VALIDATION", "strict")),

		MatrixCacheTTL:  getEnvDuration("MATRIX_CACHE_TTL", 5*time.Minute),
		MatrixCacheSize: getEnvInt("MATRIX_CACHE_SIZE", 64),

		SyncInterval:      getEnvDuration("SYNC_INTERVAL", time.Minute),
		SyncBatchSize:     getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncMaxRetries:    getEnvInt("SYNC_MAX_RETRIES", 3),
		DueDigestSchedule: getEnv("DUE_DIGEST_SCHEDULE", "0 7 * * *"),
		DueDigestDays:     getEnvInt("DUE_DIGEST_DAYS", 14),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}
	if c.CheckWindowDays < 1 || c.CheckWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid check window %d: must be between 1 and 365 days", c.CheckWindowDays))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided with GOOGLE_SPREADSHEET_ID")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if !(c.TaxRate >= 0 && c.TaxRate <= 1) {
		errors = append(errors, fmt.Sprintf("invalid tax rate %v: must be between 0 and 1", c.TaxRate))
	}
	if !(c.SharedSplitA >= 0 && c.SharedSplitB >= 0) {
		errors = append(errors, fmt.Sprintf("invalid shared split %v/%v: ratios must be non-negative numbers", c.SharedSplitA, c.SharedSplitB))
	} else if d := c.SharedSplitA + c.SharedSplitB - 1; !(d <= 1e-9 && d >= -1e-9) {
		errors = append(errors, fmt.Sprintf("shared split %v/%v must add up to 1", c.SharedSplitA, c.SharedSplitB))
	}

	if len(c.DefaultCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter ISO code", c.DefaultCurrency))
	}
	if c.InvoiceValidation != "strict" && c.InvoiceValidation != "permissive" {
		errors = append(errors, fmt.Sprintf("invalid invoice validation mode '%s': must be 'strict' or 'permissive'", c.InvoiceValidation))
	}

	if c.MatrixCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid matrix cache size %d: must be at least 1", c.MatrixCacheSize))
	}
	if c.MatrixCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid matrix cache TTL %v: must be at least 1 second", c.MatrixCacheTTL))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	}
	if c.SyncBatchSize < 1 || c.SyncBatchSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be between 1 and 500", c.SyncBatchSize))
	}
	if c.SyncMaxRetries < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync max retries %d: must be at least 1", c.SyncMaxRetries))
	}
	if _, err := cron.ParseStandard(c.DueDigestSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid due digest schedule '%s': %v", c.DueDigestSchedule, err))
	}
	if c.DueDigestDays < 1 || c.DueDigestDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid due digest window %d: must be between 1 and 365 days", c.DueDigestDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
