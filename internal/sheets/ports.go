package sheets

import (
	"context"

	"santiye/internal/core"
)

// Ports for the spreadsheet mirror the site office keeps.
type (
	InvoiceAppender interface {
		// AppendInvoice writes one ledger row and returns its sheet reference.
		AppendInvoice(ctx context.Context, inv core.Invoice) (rowRef string, err error)
	}

	QuoteAppender interface {
		AppendQuote(ctx context.Context, q core.PriceQuote) (rowRef string, err error)
	}

	// CheckDigestWriter replaces the upcoming-checks sheet with a fresh digest.
	CheckDigestWriter interface {
		WriteCheckDigest(ctx context.Context, asOf core.Date, checks []core.CheckDue) error
	}

	Writer interface {
		InvoiceAppender
		QuoteAppender
		CheckDigestWriter
	}
)
