package sheets

import (
	"santiye/internal/core"
)

// Header rows of the three sheets. Row builders below follow the same column order.
var (
	InvoiceHeader = []any{"Fatura No", "Tedarikçi", "Fatura Tarihi", "Çek Vadesi", "Ara Toplam", "KDV", "Genel Toplam", "A Payı", "B Payı", "Para Birimi"}
	QuoteHeader   = []any{"Tarih", "Firma", "Ürün", "Detay", "Fiyat", "Para Birimi"}
	CheckHeader   = []any{"Vade", "Kalan Gün", "Fatura No", "Tedarikçi", "Tutar", "Para Birimi"}
)

func InvoiceRow(inv core.Invoice) []any {
	t := inv.Totals
	return []any{
		inv.Number,
		inv.Supplier,
		inv.Date.Locale(),
		inv.DueDate.Locale(),
		core.RoundAmount(t.Subtotal),
		core.RoundAmount(t.TaxAmount),
		core.RoundAmount(t.GrandTotal),
		core.RoundAmount(t.PartyAShare),
		core.RoundAmount(t.PartyBShare),
		inv.Currency,
	}
}

func QuoteRow(q core.PriceQuote) []any {
	return []any{q.Date.Locale(), q.Firm, q.Product, q.Detail, core.RoundAmount(q.Price), q.Currency}
}

// CheckDigestRows renders the digest including its header row.
func CheckDigestRows(asOf core.Date, checks []core.CheckDue) [][]any {
	rows := make([][]any, 0, len(checks)+1)
	rows = append(rows, CheckHeader)
	for _, c := range checks {
		rows = append(rows, []any{
			c.DueDate.Locale(),
			asOf.DaysUntil(c.DueDate),
			c.Number,
			c.Supplier,
			core.RoundAmount(c.Amount),
			c.Currency,
		})
	}
	return rows
}
