package ctl

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/xuri/excelize/v2"

	"santiye/internal/core"
	"santiye/internal/storage"
)

type testCommand interface {
	subcommands.Command
	setOutput(*bytes.Buffer)
}

func (o *output) setOutput(b *bytes.Buffer) { o.out = b }

func run(t *testing.T, cmd testCommand, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var buf bytes.Buffer
	cmd.setOutput(&buf)
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	cmd.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd.Execute(context.Background(), fs), buf.String()
}

func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "santiye.db")
	repo, err := storage.NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	inv := core.Invoice{
		Number:   "F-1",
		Supplier: "Alfa Yapı",
		Date:     core.NewDate(2024, 2, 1),
		DueDate:  core.NewDate(2024, 5, 31),
		Currency: "TRY",
		TaxRate:  0.20,
		Split:    core.DefaultSharedSplit,
		Items:    []core.LineItem{{ProductID: "Kum", Quantity: 10, UnitPrice: 100, Allocation: core.Shared}},
		Totals:   core.InvoiceTotals{Subtotal: 1000, TaxAmount: 200, GrandTotal: 1200, PartyAShare: 720, PartyBShare: 480},
	}
	if _, err := repo.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	for _, q := range []core.PriceQuote{
		{Firm: "Alfa", Product: "Beton", Detail: "C30", Date: core.NewDate(2024, 3, 1), Price: 2500, Currency: "TRY"},
		{Firm: "Beta", Product: "Beton", Detail: "C30", Date: core.NewDate(2024, 3, 2), Price: 2400, Currency: "TRY"},
	} {
		if _, err := repo.CreateQuote(ctx, q); err != nil {
			t.Fatalf("CreateQuote() error = %v", err)
		}
	}
	return path
}

func TestTotalsCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	draft := `{"invoice_no":"F-9","supplier":"Alfa","invoice_date":"2024-02-01","items":[
		{"product_id":"P1","quantity":10,"unit_price":100,"allocation":"party_a"},
		{"product_id":"P2","quantity":5,"unit_price":200,"allocation":"shared"}]}`
	if err := os.WriteFile(path, []byte(draft), 0644); err != nil {
		t.Fatal(err)
	}

	status, out := run(t, &totalsCmd{}, path)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	for _, want := range []string{"31.05.2024", "Genel Toplam", "A Payı", "B Payı"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	status, out = run(t, &totalsCmd{}, "-json", "-tax", "0", path)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if !strings.Contains(out, `"grand_total": 2000`) {
		t.Errorf("json output:\n%s", out)
	}

	t.Setenv("TAX_RATE", "0.10")
	status, out = run(t, &totalsCmd{}, "-json", path)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if !strings.Contains(out, `"grand_total": 2200`) {
		t.Errorf("TAX_RATE not applied, json output:\n%s", out)
	}

	if status, _ := run(t, &totalsCmd{}); status != subcommands.ExitUsageError {
		t.Errorf("missing file status = %v, want usage error", status)
	}
	if status, _ := run(t, &totalsCmd{}, "-split-a", "1.5", path); status != subcommands.ExitFailure {
		t.Errorf("bad split status = %v, want failure", status)
	}
}

func TestDueCmd(t *testing.T) {
	status, out := run(t, &dueCmd{}, "2024-02-01")
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if out != "2024-05-31\t31.05.2024\n" {
		t.Errorf("output = %q", out)
	}
	if status, _ := run(t, &dueCmd{}, "01.02.2024"); status != subcommands.ExitFailure {
		t.Errorf("bad date status = %v", status)
	}
}

func TestChecksCmd(t *testing.T) {
	db := seededDB(t)

	status, out := run(t, &checksCmd{}, "-db", db, "-from", "2024-05-20", "-days", "14")
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	for _, want := range []string{"31.05.2024", "F-1", "Alfa Yapı", "Toplam"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, out = run(t, &checksCmd{}, "-db", db, "-from", "2024-07-01")
	if !strings.Contains(out, "no checks due") {
		t.Errorf("empty window output:\n%s", out)
	}
}

func TestMatrixCmd(t *testing.T) {
	db := seededDB(t)

	status, out := run(t, &matrixCmd{}, "-db", db)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Alfa") || !strings.Contains(lines[0], "Beta") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "*") {
		t.Errorf("row should mark the minimum: %q", lines[1])
	}

	_, out = run(t, &matrixCmd{}, "-db", db, "-group-by-date")
	if !strings.Contains(out, "Tarih") || !strings.Contains(out, "01.03.2024") {
		t.Errorf("date-grouped output:\n%s", out)
	}

	xlsx := filepath.Join(t.TempDir(), "matrix.xlsx")
	if status, _ := run(t, &matrixCmd{}, "-db", db, "-o", xlsx); status != subcommands.ExitSuccess {
		t.Fatalf("export status = %v", status)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("Fiyat Karşılaştırma", "A2"); v != "Beton" {
		t.Errorf("A2 = %q", v)
	}
}

func TestMigrateCmd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "fresh.db")
	status, out := run(t, &migrateCmd{}, "-db", db)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if out != "schema version 2 (clean)\n" {
		t.Errorf("output = %q", out)
	}
}

func TestSyncCmd(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	db := seededDB(t)

	repo, err := storage.NewSQLiteRepository(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.EnqueueSync(context.Background(), core.SyncQuote, 1); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	status, out := run(t, &syncCmd{}, "-db", db)
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if !strings.Contains(out, "synced 1 rows") || !strings.Contains(out, "completed 1") {
		t.Errorf("output = %q", out)
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Commands {
		if names[c.Name()] {
			t.Errorf("duplicate command %q", c.Name())
		}
		names[c.Name()] = true
		if c.Synopsis() == "" || c.Usage() == "" {
			t.Errorf("command %q lacks help text", c.Name())
		}
	}
	for _, want := range []string{"totals", "due", "checks", "matrix", "migrate", "sync"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}
