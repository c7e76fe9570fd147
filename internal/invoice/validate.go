package invoice

import (
	"errors"
	"fmt"
	"math"

	"santiye/internal/core"
)

// Mode selects how Sanitize treats invalid line items.
type Mode int

const (
	// Strict rejects the whole invoice on the first invalid item.
	Strict Mode = iota
	// Permissive replaces invalid numbers with zero, the way the site office
	// forms always behaved.
	Permissive
)

// ItemResult is the validation outcome of one line item.
type ItemResult struct {
	Index int
	Item  core.LineItem
	Err   error
}

// OK reports whether the item passed validation.
func (r ItemResult) OK() bool { return r.Err == nil }

// ValidateItem checks a single line item against the form rules.
func ValidateItem(item core.LineItem) error {
	return item.Validate()
}

// ValidateItems validates every item and reports one result per item.
func ValidateItems(items []core.LineItem) []ItemResult {
	out := make([]ItemResult, len(items))
	for i, item := range items {
		out[i] = ItemResult{Index: i, Item: item, Err: ValidateItem(item)}
	}
	return out
}

// Sanitize prepares form input for ComputeTotals.
//
// In Strict mode the first invalid item is returned as an error wrapping the
// core sentinel. In Permissive mode NaN, infinite or negative quantities and
// prices are zeroed and unknown allocations are kept as-is, so they count in
// the subtotal but in neither share.
func Sanitize(items []core.LineItem, mode Mode) ([]core.LineItem, error) {
	out := make([]core.LineItem, 0, len(items))
	for _, res := range ValidateItems(items) {
		if res.OK() {
			out = append(out, res.Item)
			continue
		}
		if mode == Strict {
			return nil, fmt.Errorf("item %d: %w", res.Index+1, res.Err)
		}
		item := res.Item
		item.Quantity = zeroInvalid(item.Quantity)
		item.UnitPrice = zeroInvalid(item.UnitPrice)
		out = append(out, item)
	}
	return out, nil
}

func zeroInvalid(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ValidateRates checks the tax rate and shared split configured for an invoice.
func ValidateRates(taxRate float64, split core.SharedSplit) error {
	var errs []error
	if !(taxRate >= 0 && taxRate <= 1) {
		errs = append(errs, fmt.Errorf("%w: %v", core.ErrInvalidTaxRate, taxRate))
	}
	if err := split.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v/%v", err, split.PartyA, split.PartyB))
	}
	return errors.Join(errs...)
}
