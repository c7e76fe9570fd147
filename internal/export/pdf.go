package export

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"santiye/internal/core"
)

const pdfFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

var allocationLabels = map[core.Allocation]string{
	core.PartyA: "A",
	core.PartyB: "B",
	core.Shared: "Ortak",
}

// WriteInvoicePDF renders a one-document A4 summary of inv: header, item
// table, totals, party shares and the check due date.
func WriteInvoicePDF(w io.Writer, inv core.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Fatura "+inv.Number, true)
	pdf.AddUTF8FontFromBytes(pdfFont, "", fontRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", fontBold)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("load pdf font: %w", err)
	}
	pdf.AddPage()

	title := cases.Title(language.Turkish)
	currency := inv.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	amount := func(v float64) string {
		return strconv.FormatFloat(core.RoundAmount(v), 'f', 2, 64) + " " + currency
	}

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "Fatura "+inv.Number, "", 1, "L", false, 0, "")

	pdf.SetFont(pdfFont, "", 11)
	meta := [][2]string{
		{"Tedarikçi", title.String(inv.Supplier)},
		{"Fatura Tarihi", inv.Date.Locale()},
		{"Çek Vadesi", inv.DueDate.Locale()},
		{"KDV Oranı", "%" + strconv.FormatFloat(inv.TaxRate*100, 'f', -1, 64)},
	}
	for _, kv := range meta {
		pdf.CellFormat(40, 7, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{60, 25, 35, 25, 35}
	headers := []string{"Ürün", "Miktar", "Birim Fiyat", "Taraf", "Tutar"}
	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	for i, item := range inv.Items {
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		label, ok := allocationLabels[item.Allocation]
		if !ok {
			label = string(item.Allocation)
		}
		pdf.CellFormat(widths[0], 7, item.ProductID, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.FormatFloat(item.Quantity, 'f', -1, 64), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[2], 7, amount(item.UnitPrice), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[3], 7, label, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[4], 7, amount(item.Quantity*item.UnitPrice), "1", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)

	t := inv.Totals
	totals := [][2]string{
		{"Ara Toplam", amount(t.Subtotal)},
		{"KDV", amount(t.TaxAmount)},
		{"Genel Toplam", amount(t.GrandTotal)},
		{"A Payı", amount(t.PartyAShare)},
		{"B Payı", amount(t.PartyBShare)},
	}
	for i, kv := range totals {
		style := ""
		if i == 2 {
			style = "B"
		}
		pdf.SetFont(pdfFont, style, 11)
		pdf.CellFormat(145, 7, kv[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, kv[1], "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice pdf: %w", err)
	}
	return nil
}
