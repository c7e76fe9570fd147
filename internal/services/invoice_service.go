package services

import (
	"context"
	"fmt"
	"strings"

	"santiye/internal/core"
	"santiye/internal/invoice"
	"santiye/internal/log"
)

// InvoiceConfig holds the defaults applied to drafts that carry no rates.
type InvoiceConfig struct {
	TaxRate  float64
	Split    core.SharedSplit
	Currency string
	Mode     invoice.Mode
}

func DefaultInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		TaxRate:  core.DefaultTaxRate,
		Split:    core.DefaultSharedSplit,
		Currency: core.DefaultCurrency,
		Mode:     invoice.Strict,
	}
}

// InvoiceService validates drafts, computes totals and due dates, stores
// invoices and schedules their spreadsheet sync.
type InvoiceService struct {
	store  InvoiceStore
	cfg    InvoiceConfig
	sync   syncNotifier
	logger *log.Logger
}

func NewInvoiceService(store InvoiceStore, queue SyncEnqueuer, publisher Publisher, cfg InvoiceConfig, logger *log.Logger) *InvoiceService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentInvoice)
	return &InvoiceService{
		store:  store,
		cfg:    cfg,
		sync:   syncNotifier{queue: queue, publisher: publisher, logger: logger},
		logger: logger,
	}
}

// Preview computes the invoice a draft would produce without storing it.
func (s *InvoiceService) Preview(draft core.InvoiceDraft) (core.Invoice, error) {
	if err := draft.Validate(); err != nil {
		return core.Invoice{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	taxRate := s.cfg.TaxRate
	if draft.TaxRate != nil {
		taxRate = *draft.TaxRate
	}
	split := s.cfg.Split
	if draft.Split != nil {
		split = *draft.Split
	}
	if err := invoice.ValidateRates(taxRate, split); err != nil {
		return core.Invoice{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	items, err := invoice.Sanitize(draft.Items, s.cfg.Mode)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(draft.Currency))
	if currency == "" {
		currency = s.cfg.Currency
	}

	return core.Invoice{
		Number:   strings.TrimSpace(draft.Number),
		Supplier: strings.TrimSpace(draft.Supplier),
		Date:     draft.Date,
		DueDate:  invoice.DueDate(draft.Date),
		Currency: currency,
		TaxRate:  taxRate,
		Split:    split,
		Items:    items,
		Totals:   invoice.ComputeTotals(items, taxRate, split),
	}, nil
}

// Create stores the computed invoice and returns it with its id.
func (s *InvoiceService) Create(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	inv, err := s.Preview(draft)
	if err != nil {
		return core.Invoice{}, err
	}

	id, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	inv.ID = id

	s.logger.InfoContext(ctx, "Invoice created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithInvoice(id, inv.Number, inv.Totals.GrandTotal, len(inv.Items)).
			ToSlice()...)

	s.sync.notify(ctx, core.SyncInvoice, id)
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (core.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *InvoiceService) List(ctx context.Context, limit int) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx, limit)
}

// DueCalendar lists the checks falling due between from and to, inclusive.
func (s *InvoiceService) DueCalendar(ctx context.Context, from, to core.Date) ([]core.CheckDue, error) {
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("%w: from: %w", core.ErrValidation, err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("%w: to: %w", core.ErrValidation, err)
	}
	if to.Before(from.Time) {
		return nil, fmt.Errorf("%w: range ends before it starts", core.ErrValidation)
	}
	return s.store.ListChecksDue(ctx, from, to)
}
