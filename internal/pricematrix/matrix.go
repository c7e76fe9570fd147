// Package pricematrix pivots flat price quotes into a product x firm
// comparison grid and flags the cheapest firm of each row.
package pricematrix

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"santiye/internal/core"
)

// EmptyDetail is the detail label used when a quote has none.
const EmptyDetail = "-"

// Key identifies a matrix row. Date is empty unless rows are grouped by date.
type Key struct {
	Date    string
	Product string
	Detail  string
}

// String is the composite form used for date-grouped ordering.
func (k Key) String() string {
	return k.Date + "|" + k.Product + "|" + k.Detail
}

// Cell is one firm's quote inside a row.
type Cell struct {
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Date     core.Date `json:"date"`
	IsMin    bool      `json:"is_min"`
}

// Row is one product (and optionally one date) across all firms.
type Row struct {
	Product  string          `json:"product_name"`
	Detail   string          `json:"detail"`
	Date     *core.Date      `json:"date,omitempty"`
	Cells    map[string]Cell `json:"price_by_firm"`
	MinPrice float64         `json:"min_price"`

	key Key
}

// Key returns the grouping key of the row.
func (r Row) Key() Key { return r.key }

// HasMin reports whether at least one firm quoted in this row.
func (r Row) HasMin() bool { return len(r.Cells) > 0 }

// Cell returns the firm's cell, if the firm quoted in this row.
func (r Row) Cell(firm string) (Cell, bool) {
	c, ok := r.Cells[firm]
	return c, ok
}

// Matrix is the pivoted grid. Firms lists every firm appearing in any row,
// sorted, and gives the column order.
type Matrix struct {
	Firms []string `json:"firms"`
	Rows  []Row    `json:"rows"`
}

// Builder configures a matrix build.
type Builder struct {
	// GroupByDate gives every calendar date its own row.
	GroupByDate bool
	// Filter is matched, case-insensitively, against product, detail and date.
	Filter string
	// Locale drives case folding of the filter. Defaults to Turkish.
	Locale language.Tag
}

// Build pivots quotes into rows using the default builder.
func Build(quotes []core.PriceQuote, groupByDate bool) []Row {
	return Builder{GroupByDate: groupByDate}.Build(quotes).Rows
}

// Build pivots quotes into a Matrix.
//
// Within a row the first quote seen for a firm wins; later quotes from the
// same firm are ignored. Callers wanting "latest price" semantics must pass
// quotes ordered by date descending, as storage.ListQuotes does.
func (b Builder) Build(quotes []core.PriceQuote) Matrix {
	rows := b.pivot(quotes)
	rows = b.filter(rows)
	b.sort(rows)

	firms := map[string]struct{}{}
	for _, r := range rows {
		for firm := range r.Cells {
			firms[firm] = struct{}{}
		}
	}
	m := Matrix{Firms: make([]string, 0, len(firms)), Rows: rows}
	for firm := range firms {
		m.Firms = append(m.Firms, firm)
	}
	sort.Strings(m.Firms)
	return m
}

func (b Builder) keyOf(q core.PriceQuote) Key {
	k := Key{
		Product: strings.TrimSpace(q.Product),
		Detail:  strings.TrimSpace(q.Detail),
	}
	if k.Detail == "" {
		k.Detail = EmptyDetail
	}
	if b.GroupByDate {
		k.Date = q.Date.Locale()
	}
	return k
}

func (b Builder) pivot(quotes []core.PriceQuote) []Row {
	index := map[Key]int{}
	var rows []Row
	for _, q := range quotes {
		k := b.keyOf(q)
		i, ok := index[k]
		if !ok {
			r := Row{Product: k.Product, Detail: k.Detail, Cells: map[string]Cell{}, key: k}
			if b.GroupByDate {
				d := q.Date
				r.Date = &d
			}
			i = len(rows)
			index[k] = i
			rows = append(rows, r)
		}
		firm := strings.TrimSpace(q.Firm)
		if _, seen := rows[i].Cells[firm]; seen {
			continue
		}
		rows[i].Cells[firm] = Cell{Price: q.Price, Currency: q.Currency, Date: q.Date}
	}
	for i := range rows {
		markMin(&rows[i])
	}
	return rows
}

// markMin sets MinPrice over the present cells and flags the matching ones.
func markMin(r *Row) {
	first := true
	for _, c := range r.Cells {
		if first || c.Price < r.MinPrice {
			r.MinPrice = c.Price
			first = false
		}
	}
	for firm, c := range r.Cells {
		c.IsMin = c.Price == r.MinPrice
		r.Cells[firm] = c
	}
}

func (b Builder) filter(rows []Row) []Row {
	needle := strings.TrimSpace(b.Filter)
	if needle == "" {
		return rows
	}
	fold := cases.Lower(b.locale())
	needle = fold.String(needle)

	out := rows[:0]
	for _, r := range rows {
		date := ""
		if r.Date != nil {
			date = r.Date.Locale()
		}
		if strings.Contains(fold.String(r.Product+r.Detail+date), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (b Builder) sort(rows []Row) {
	if b.GroupByDate {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].key.String() < rows[j].key.String()
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Product < rows[j].Product
	})
}

func (b Builder) locale() language.Tag {
	if b.Locale == language.Und {
		return language.Turkish
	}
	return b.Locale
}
