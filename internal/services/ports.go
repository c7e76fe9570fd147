package services

import (
	"context"
	"time"

	"santiye/internal/amqp"
	"santiye/internal/core"
	"santiye/internal/storage"
)

// Storage ports implemented by *storage.SQLiteRepository.
type (
	InvoiceStore interface {
		CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error)
		GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
		ListInvoices(ctx context.Context, limit int) ([]core.Invoice, error)
		ListChecksDue(ctx context.Context, from, to core.Date) ([]core.CheckDue, error)
	}

	QuoteStore interface {
		CreateQuote(ctx context.Context, q core.PriceQuote) (int64, error)
		GetQuote(ctx context.Context, id int64) (core.PriceQuote, error)
		ListQuotes(ctx context.Context) ([]core.PriceQuote, error)
		DeleteQuote(ctx context.Context, id int64) error
	}

	SyncEnqueuer interface {
		EnqueueSync(ctx context.Context, kind core.SyncKind, entityID int64) (int64, error)
	}

	SyncQueue interface {
		SyncEnqueuer
		DequeueSync(ctx context.Context, limit int) ([]storage.SyncItem, error)
		MarkSynced(ctx context.Context, id int64) error
		MarkSyncFailed(ctx context.Context, id int64, reason string, retry bool) error
		ResetStaleProcessing(ctx context.Context) (int64, error)
		CleanupCompletedSyncs(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// Publisher is implemented by *amqp.Client. Pass a nil interface, not a
	// nil *amqp.Client, when no broker is configured.
	Publisher interface {
		Publish(ctx context.Context, msg amqp.SyncMessage) error
	}
)

var (
	_ InvoiceStore = (*storage.SQLiteRepository)(nil)
	_ QuoteStore   = (*storage.SQLiteRepository)(nil)
	_ SyncQueue    = (*storage.SQLiteRepository)(nil)
	_ Publisher    = (*amqp.Client)(nil)
)
