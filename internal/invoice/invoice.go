// Package invoice computes invoice totals, the VAT split and the two-party
// cost allocation of a construction site invoice.
package invoice

import (
	"santiye/internal/core"
)

// CheckDueDays is the fixed offset between an invoice date and the due date
// of the check written against it.
const CheckDueDays = 120

// line holds the per-line figures of a single item.
type line struct {
	subtotal float64
	tax      float64
	total    float64
}

// Fold combines the running totals with one line item.
func Fold(acc core.InvoiceTotals, item core.LineItem, taxRate float64, split core.SharedSplit) core.InvoiceTotals {
	l := line{subtotal: item.Quantity * item.UnitPrice}
	l.tax = l.subtotal * taxRate
	l.total = l.subtotal + l.tax

	acc.Subtotal += l.subtotal
	acc.TaxAmount += l.tax
	acc.GrandTotal = acc.Subtotal + acc.TaxAmount

	if rule, ok := RuleFor(item.Allocation); ok {
		a, b := rule.Allocate(l.total, split)
		acc.PartyAShare += a
		acc.PartyBShare += b
	}
	return acc
}

// ComputeTotals returns the billing totals and the two-party split of items.
//
// Items are not validated: a zero or NaN quantity or price flows through the
// arithmetic unchanged. Use Sanitize first when the input comes from a form.
func ComputeTotals(items []core.LineItem, taxRate float64, split core.SharedSplit) core.InvoiceTotals {
	var acc core.InvoiceTotals
	for _, item := range items {
		acc = Fold(acc, item, taxRate, split)
	}
	return acc
}

// Compute is ComputeTotals with the default tax rate and shared split.
func Compute(items []core.LineItem) core.InvoiceTotals {
	return ComputeTotals(items, core.DefaultTaxRate, core.DefaultSharedSplit)
}

// DueDate returns the check due date for an invoice issued on invoiceDate.
// The offset is counted in calendar days, never in months.
func DueDate(invoiceDate core.Date) core.Date {
	return invoiceDate.AddDays(CheckDueDays)
}
