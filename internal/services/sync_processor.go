package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"santiye/internal/core"
	"santiye/internal/log"
	"santiye/internal/sheets"
	"santiye/internal/storage"
)

// SyncProcessorConfig holds configuration for the sync processor.
type SyncProcessorConfig struct {
	// PollInterval is how often pending rows are drained without a message.
	PollInterval time.Duration
	// BatchSize caps the rows claimed per drain.
	BatchSize int
	// MaxRetries is the number of attempts before a row is parked as failed.
	MaxRetries int
	// CleanupInterval and CleanupAge control removal of completed rows.
	CleanupInterval time.Duration
	CleanupAge      time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    time.Minute,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// SyncProcessor writes queued invoices and quotes to the spreadsheet.
type SyncProcessor struct {
	queue    SyncQueue
	invoices InvoiceStore
	quotes   QuoteStore
	invSheet sheets.InvoiceAppender
	qSheet   sheets.QuoteAppender
	config   SyncProcessorConfig
	logger   *log.Logger

	// drainMu serialises drains triggered by messages and by the poll loop.
	drainMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(
	queue SyncQueue,
	invoices InvoiceStore,
	quotes QuoteStore,
	writer sheets.Writer,
	config SyncProcessorConfig,
	logger *log.Logger,
) *SyncProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	def := DefaultSyncProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.CleanupAge <= 0 {
		config.CleanupAge = def.CleanupAge
	}
	return &SyncProcessor{
		queue:    queue,
		invoices: invoices,
		quotes:   quotes,
		invSheet: writer,
		qSheet:   writer,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Rows a crashed worker left in processing would otherwise never drain.
	if n, err := p.queue.ResetStaleProcessing(ctx); err != nil {
		p.logger.WarnContext(ctx, "Failed to reset stale processing items", log.FieldError, err)
	} else if n > 0 {
		p.logger.InfoContext(ctx, "Reset stale sync items", "count", n)
	}

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it, or for ctx to expire.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.Drain(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-poll.C:
			p.Drain(ctx)
		case <-cleanup.C:
			cutoff := time.Now().Add(-p.config.CleanupAge)
			if _, err := p.queue.CleanupCompletedSyncs(ctx, cutoff); err != nil {
				p.logger.ErrorContext(ctx, "Failed to cleanup completed syncs", log.FieldError, err)
			}
		}
	}
}

// Drain processes pending rows in batches until the queue is empty, a batch
// has a failure, or ctx ends. Failed rows wait for the next drain. It returns
// how many rows were written successfully.
func (p *SyncProcessor) Drain(ctx context.Context) (int, error) {
	p.drainMu.Lock()
	defer p.drainMu.Unlock()

	synced := 0
	for ctx.Err() == nil {
		items, err := p.queue.DequeueSync(ctx, p.config.BatchSize)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to dequeue sync batch", log.FieldError, err)
			return synced, err
		}
		if len(items) == 0 {
			return synced, nil
		}

		failed := 0
		for _, item := range items {
			if err := p.process(ctx, item); err != nil {
				p.handleFailure(ctx, item, err)
				failed++
				continue
			}
			if err := p.queue.MarkSynced(ctx, item.ID); err != nil {
				p.parkWritten(ctx, item, err)
			}
			synced++
		}
		if failed > 0 || len(items) < p.config.BatchSize {
			return synced, nil
		}
	}
	return synced, ctx.Err()
}

func (p *SyncProcessor) process(ctx context.Context, item storage.SyncItem) error {
	switch item.Kind {
	case core.SyncInvoice:
		inv, err := p.invoices.GetInvoice(ctx, item.EntityID)
		if err != nil {
			return fmt.Errorf("get invoice %d: %w", item.EntityID, err)
		}
		if _, err := p.invSheet.AppendInvoice(ctx, inv); err != nil {
			return err
		}
	case core.SyncQuote:
		q, err := p.quotes.GetQuote(ctx, item.EntityID)
		if err != nil {
			return fmt.Errorf("get quote %d: %w", item.EntityID, err)
		}
		if _, err := p.qSheet.AppendQuote(ctx, q); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown sync kind %q", item.Kind)
	}
	return nil
}

// parkWritten moves a row whose sheet append succeeded but could not be marked
// synced to failed without retry. Left in processing, it would be reset to
// pending on the next start and appended a second time.
func (p *SyncProcessor) parkWritten(ctx context.Context, item storage.SyncItem, cause error) {
	p.logger.ErrorContext(ctx, "Failed to mark sync complete, parking row",
		"id", item.ID, "kind", item.Kind, "entity_id", item.EntityID, log.FieldError, cause)
	reason := "written to sheet, not marked synced: " + cause.Error()
	if err := p.queue.MarkSyncFailed(ctx, item.ID, reason, false); err != nil {
		p.logger.ErrorContext(ctx, "Failed to park written sync row", "id", item.ID, log.FieldError, err)
	}
}

func (p *SyncProcessor) handleFailure(ctx context.Context, item storage.SyncItem, cause error) {
	attempt := item.Attempts + 1
	retry := attempt < p.config.MaxRetries

	fields := log.NewFields().WithOperation(log.OpSync).WithError(cause)
	p.logger.WarnContext(ctx, "Sync processing failed", append(fields.ToSlice(),
		"id", item.ID,
		"kind", item.Kind,
		"entity_id", item.EntityID,
		"attempt", attempt,
		"retry", retry)...)

	if err := p.queue.MarkSyncFailed(ctx, item.ID, cause.Error(), retry); err != nil {
		p.logger.ErrorContext(ctx, "Failed to record sync failure", "id", item.ID, log.FieldError, err)
	}
}
