package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"santiye/internal/core"
	"santiye/internal/pricematrix"
)

func sampleMatrix(groupByDate bool) pricematrix.Matrix {
	quotes := []core.PriceQuote{
		{Firm: "Alfa", Product: "Beton", Detail: "50kg", Date: core.NewDate(2024, 1, 10), Price: 120, Currency: "TRY"},
		{Firm: "Beta", Product: "Beton", Detail: "50kg", Date: core.NewDate(2024, 1, 10), Price: 118.5, Currency: "TRY"},
		{Firm: "Beta", Product: "Kum", Date: core.NewDate(2024, 1, 11), Price: 40, Currency: "TRY"},
	}
	return pricematrix.Builder{GroupByDate: groupByDate}.Build(quotes)
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteMatrixXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatrixXLSX(&buf, sampleMatrix(false)); err != nil {
		t.Fatalf("WriteMatrixXLSX() error = %v", err)
	}
	f := openWorkbook(t, &buf)

	rows, err := f.GetRows(MatrixSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	wantHeader := []string{"Ürün", "Detay", "Alfa", "Beta", "En Düşük"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	// Beton row: Alfa 120, Beta 118.5, min 118.5.
	if rows[1][0] != "Beton" || rows[1][2] != "120" || rows[1][3] != "118.5" || rows[1][4] != "118.5" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][1] != pricematrix.EmptyDetail {
		t.Errorf("empty detail rendered as %q", rows[2][1])
	}

	alfa, _ := f.GetCellStyle(MatrixSheet, "C2")
	beta, _ := f.GetCellStyle(MatrixSheet, "D2")
	if alfa == beta {
		t.Error("min price cell should carry a distinct style")
	}
}

func TestWriteMatrixXLSX_DateColumn(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatrixXLSX(&buf, sampleMatrix(true)); err != nil {
		t.Fatalf("WriteMatrixXLSX() error = %v", err)
	}
	f := openWorkbook(t, &buf)

	header, _ := f.GetCellValue(MatrixSheet, "C1")
	if header != "Tarih" {
		t.Errorf("C1 = %q, want Tarih", header)
	}
	date, _ := f.GetCellValue(MatrixSheet, "C2")
	if date != "10.01.2024" {
		t.Errorf("C2 = %q, want 10.01.2024", date)
	}
}

func TestWriteMatrixXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatrixXLSX(&buf, pricematrix.Matrix{}); err != nil {
		t.Fatalf("WriteMatrixXLSX() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected a workbook even without rows")
	}
}

func TestWriteInvoicePDF(t *testing.T) {
	inv := core.Invoice{
		Number:   "F-001",
		Supplier: "şişli yapı ağı",
		Date:     core.NewDate(2024, 2, 1),
		DueDate:  core.NewDate(2024, 5, 31),
		Currency: "TRY",
		TaxRate:  0.20,
		Items: []core.LineItem{
			{ProductID: "Çimento", Quantity: 10, UnitPrice: 100, Allocation: core.PartyA},
			{ProductID: "Kum", Quantity: 5, UnitPrice: 200, Allocation: core.Shared},
		},
		Totals: core.InvoiceTotals{Subtotal: 2000, TaxAmount: 400, GrandTotal: 2400, PartyAShare: 1920, PartyBShare: 480},
	}

	var buf bytes.Buffer
	if err := WriteInvoicePDF(&buf, inv); err != nil {
		t.Fatalf("WriteInvoicePDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	// Turkish letters need the embedded TrueType font, not a core font.
	if !bytes.Contains(buf.Bytes(), []byte("/FontFile2")) {
		t.Error("invoice pdf does not embed a TrueType font")
	}
	if bytes.Contains(buf.Bytes(), []byte("/Helvetica")) {
		t.Error("invoice pdf still references the Helvetica core font")
	}
}
