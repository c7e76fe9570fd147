package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	PartyA Allocation = "party_a"
	PartyB Allocation = "party_b"
	Shared Allocation = "shared"
)

// DefaultTaxRate is the VAT rate applied to invoice lines.
const DefaultTaxRate = 0.20

// DefaultSharedSplit is the ratio used to split shared lines between the two parties.
var DefaultSharedSplit = SharedSplit{PartyA: 0.60, PartyB: 0.40}

type (
	// Allocation tells which stakeholder bears a line item's cost.
	Allocation string

	Date struct {
		time.Time
	}

	// LineItem is one invoice row.
	LineItem struct {
		ProductID  string     `json:"product_id"`
		Quantity   float64    `json:"quantity"`
		UnitPrice  float64    `json:"unit_price"`
		Allocation Allocation `json:"allocation"`
	}

	// InvoiceTotals holds the derived billing figures of an invoice.
	InvoiceTotals struct {
		Subtotal    float64 `json:"subtotal"`
		TaxAmount   float64 `json:"tax_amount"`
		GrandTotal  float64 `json:"grand_total"`
		PartyAShare float64 `json:"party_a_share"`
		PartyBShare float64 `json:"party_b_share"`
	}

	SharedSplit struct {
		PartyA float64 `json:"party_a"`
		PartyB float64 `json:"party_b"`
	}

	// PriceQuote is a single firm's offered price for a product on a given date.
	PriceQuote struct {
		ID       int64   `json:"id,omitempty"`
		Firm     string  `json:"firm_name"`
		Product  string  `json:"product_name"`
		Detail   string  `json:"detail,omitempty"`
		Date     Date    `json:"date"`
		Price    float64 `json:"price"`
		Currency string  `json:"currency"`
	}
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidPrice      = errors.New("invalid unit price")
	ErrEmptyProduct      = errors.New("empty product reference")
	ErrInvalidAllocation = errors.New("invalid allocation")
	ErrEmptyFirm         = errors.New("empty firm name")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidTaxRate    = errors.New("invalid tax rate")
	ErrInvalidSplit      = errors.New("invalid shared split")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// ParseAllocation maps a form or API value to an Allocation.
// Legacy labels used by the site office forms are accepted as well.
func ParseAllocation(s string) (Allocation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "party_a", "partya", "a", "contractor":
		return PartyA, nil
	case "party_b", "partyb", "b", "owner", "employer":
		return PartyB, nil
	case "shared", "ortak", "both":
		return Shared, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAllocation, s)
}

// Valid reports whether a is one of the three known tags.
func (a Allocation) Valid() bool {
	switch a {
	case PartyA, PartyB, Shared:
		return true
	}
	return false
}

func (a Allocation) String() string { return string(a) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// String returns the ISO form used by the API and storage.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Locale returns the tr-TR short date form (DD.MM.YYYY).
func (d Date) Locale() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02.01.2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Full timestamps are accepted and truncated to their day.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the fields the invoice form requires.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.ProductID) == "" {
		return ErrEmptyProduct
	}
	if !(li.Quantity > 0) || math.IsInf(li.Quantity, 1) {
		return ErrInvalidQuantity
	}
	if !(li.UnitPrice >= 0) || math.IsInf(li.UnitPrice, 1) {
		return ErrInvalidPrice
	}
	if !li.Allocation.Valid() {
		return ErrInvalidAllocation
	}
	return nil
}

// Validate rejects negative or NaN ratios and ratios that do not add up to 1.
func (s SharedSplit) Validate() error {
	if !(s.PartyA >= 0 && s.PartyB >= 0) {
		return ErrInvalidSplit
	}
	if d := s.PartyA + s.PartyB - 1; !(d <= 1e-9 && d >= -1e-9) {
		return ErrInvalidSplit
	}
	return nil
}

func (q PriceQuote) Validate() error {
	if strings.TrimSpace(q.Firm) == "" {
		return ErrEmptyFirm
	}
	if strings.TrimSpace(q.Product) == "" {
		return ErrEmptyProduct
	}
	if err := q.Date.Validate(); err != nil {
		return err
	}
	if !(q.Price >= 0) {
		return ErrInvalidPrice
	}
	return nil
}
