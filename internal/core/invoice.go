package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyInvoiceNo = errors.New("empty invoice number")
	ErrNoItems        = errors.New("invoice has no line items")
	ErrNotFound       = errors.New("not found")

	// ErrValidation marks input the caller must correct. Services wrap the
	// specific sentinel with it.
	ErrValidation = errors.New("validation failed")
)

type (
	// InvoiceDraft is what a client submits. Rates left nil fall back to
	// the configured defaults.
	InvoiceDraft struct {
		Number   string       `json:"invoice_no"`
		Supplier string       `json:"supplier"`
		Date     Date         `json:"invoice_date"`
		Currency string       `json:"currency,omitempty"`
		TaxRate  *float64     `json:"tax_rate,omitempty"`
		Split    *SharedSplit `json:"shared_split,omitempty"`
		Items    []LineItem   `json:"items"`
	}

	// Invoice is a stored invoice together with its derived figures.
	Invoice struct {
		ID        int64         `json:"id"`
		Number    string        `json:"invoice_no"`
		Supplier  string        `json:"supplier"`
		Date      Date          `json:"invoice_date"`
		DueDate   Date          `json:"check_due_date"`
		Currency  string        `json:"currency"`
		TaxRate   float64       `json:"tax_rate"`
		Split     SharedSplit   `json:"shared_split"`
		Items     []LineItem    `json:"items"`
		Totals    InvoiceTotals `json:"totals"`
		CreatedAt time.Time     `json:"created_at"`
	}

	// CheckDue is one entry of the payment calendar.
	CheckDue struct {
		InvoiceID int64   `json:"invoice_id"`
		Number    string  `json:"invoice_no"`
		Supplier  string  `json:"supplier"`
		DueDate   Date    `json:"check_due_date"`
		Amount    float64 `json:"amount"`
		Currency  string  `json:"currency"`
	}
)

// Validate checks the header fields. Items are validated by the invoice package.
func (d InvoiceDraft) Validate() error {
	if strings.TrimSpace(d.Number) == "" {
		return ErrEmptyInvoiceNo
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

// SyncKind names the entity a sync queue row refers to.
type SyncKind string

const (
	SyncInvoice SyncKind = "invoice"
	SyncQuote   SyncKind = "quote"
)

func (k SyncKind) Valid() bool {
	return k == SyncInvoice || k == SyncQuote
}
