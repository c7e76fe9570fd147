package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"santiye/internal/core"
	"santiye/internal/log"
	ports "santiye/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the Sheets adapter.
type Options struct {
	SpreadsheetID   string
	InvoicesSheet   string
	QuotesSheet     string
	ChecksSheet     string
	CredentialsJSON []byte
	CredentialsFile string

	// ClientOptions are passed to the Sheets service after the credentials.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	invoicesSheet string
	quotesSheet   string
	checksSheet   string
	logger        *log.Logger
}

var _ ports.Writer = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := credentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		invoicesSheet: orDefault(opts.InvoicesSheet, "Faturalar"),
		quotesSheet:   orDefault(opts.QuotesSheet, "Fiyatlar"),
		checksSheet:   orDefault(opts.ChecksSheet, "Cekler"),
		logger:        logger,
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case len(opts.CredentialsJSON) > 0:
		return opts.CredentialsJSON, nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) AppendInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	ref, err := c.appendRow(ctx, c.invoicesSheet, ports.InvoiceHeader, ports.InvoiceRow(inv))
	if err != nil {
		return "", fmt.Errorf("append invoice %s: %w", inv.Number, err)
	}
	c.logger.InfoContext(ctx, "Invoice appended to sheet",
		log.FieldInvoiceID, inv.ID,
		log.FieldInvoiceNo, inv.Number,
		log.FieldSheetsRef, ref)
	return ref, nil
}

func (c *Client) AppendQuote(ctx context.Context, q core.PriceQuote) (string, error) {
	ref, err := c.appendRow(ctx, c.quotesSheet, ports.QuoteHeader, ports.QuoteRow(q))
	if err != nil {
		return "", fmt.Errorf("append quote %d: %w", q.ID, err)
	}
	c.logger.InfoContext(ctx, "Price quote appended to sheet",
		log.FieldQuoteID, q.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

// WriteCheckDigest clears the checks sheet and writes the digest from A1.
func (c *Client) WriteCheckDigest(ctx context.Context, asOf core.Date, checks []core.CheckDue) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:F", c.checksSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1", c.checksSheet)
	vr := &gsheet.ValueRange{Values: ports.CheckDigestRows(asOf, checks)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Check digest written",
		"as_of", asOf.String(),
		"checks", len(checks),
		"sheet", c.checksSheet)
	return nil
}

// appendRow writes the header first when the sheet is empty, then appends row.
func (c *Client) appendRow(ctx context.Context, sheet string, header, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	probe := fmt.Sprintf("%s!A1:A1", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, probe).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", probe, err)
	}

	values := [][]any{row}
	if len(resp.Values) == 0 {
		values = [][]any{header, row}
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	out, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if out.Updates != nil && out.Updates.UpdatedRange != "" {
		return out.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
