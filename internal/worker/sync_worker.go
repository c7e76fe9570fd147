package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"santiye/internal/amqp"
	"santiye/internal/core"
	"santiye/internal/log"
	"santiye/internal/sheets"
)

// Drainer writes pending sync rows to the spreadsheet.
type Drainer interface {
	Drain(ctx context.Context) (int, error)
}

// ChecksSource lists the payment calendar.
type ChecksSource interface {
	ListChecksDue(ctx context.Context, from, to core.Date) ([]core.CheckDue, error)
}

// SyncWorker reacts to sync messages and writes the daily check digest.
type SyncWorker struct {
	drainer    Drainer
	checks     ChecksSource
	digest     sheets.CheckDigestWriter
	digestDays int
	logger     *log.Logger
}

func NewSyncWorker(drainer Drainer, checks ChecksSource, digest sheets.CheckDigestWriter, digestDays int, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if digestDays < 1 {
		digestDays = 14
	}
	return &SyncWorker{
		drainer:    drainer,
		checks:     checks,
		digest:     digest,
		digestDays: digestDays,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one AMQP message. The message only signals that work is
// queued, so duplicates and out-of-order deliveries are harmless: the drain
// writes each queued row once. An error requeues the delivery.
func (w *SyncWorker) Handle(ctx context.Context, msg amqp.SyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldMessageID, msg.ID,
		"kind", msg.Kind,
		"entity_id", msg.EntityID)

	n, err := w.drainer.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain sync queue: %w", err)
	}

	w.logger.DebugContext(ctx, "Sync queue drained", "synced", n, log.FieldMessageID, msg.ID)
	return nil
}

// DueDigest writes the checks falling due from now through the next
// digestDays days to the checks sheet.
func (w *SyncWorker) DueDigest(ctx context.Context, now time.Time) error {
	from := core.DateOf(now)
	to := from.AddDays(w.digestDays)

	checks, err := w.checks.ListChecksDue(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list checks due: %w", err)
	}
	if err := w.digest.WriteCheckDigest(ctx, from, checks); err != nil {
		return fmt.Errorf("write check digest: %w", err)
	}

	var total float64
	for _, c := range checks {
		total += c.Amount
	}
	w.logger.InfoContext(ctx, "Check digest written",
		log.FieldOperation, log.OpDigest,
		"from", from.String(),
		"to", to.String(),
		"checks", len(checks),
		"total", core.RoundAmount(total))
	return nil
}

// Schedule registers the digest and a periodic drain on c. drainSpec may be
// empty to skip the drain job.
func (w *SyncWorker) Schedule(ctx context.Context, c *cron.Cron, digestSpec, drainSpec string) error {
	if _, err := c.AddFunc(digestSpec, func() {
		if err := w.DueDigest(ctx, time.Now()); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled check digest failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("schedule digest %q: %w", digestSpec, err)
	}

	if drainSpec == "" {
		return nil
	}
	if _, err := c.AddFunc(drainSpec, func() {
		if _, err := w.drainer.Drain(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled drain failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("schedule drain %q: %w", drainSpec, err)
	}
	return nil
}
