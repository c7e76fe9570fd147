package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"santiye/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "santiye.db")
	repo, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sampleInvoice(no string, date core.Date) core.Invoice {
	return core.Invoice{
		Number:   no,
		Supplier: "Yapı Malzemeleri A.Ş.",
		Date:     date,
		DueDate:  date.AddDays(120),
		Currency: "TRY",
		TaxRate:  0.20,
		Split:    core.SharedSplit{PartyA: 0.6, PartyB: 0.4},
		Items: []core.LineItem{
			{ProductID: "P1", Quantity: 10, UnitPrice: 100, Allocation: core.PartyA},
			{ProductID: "P2", Quantity: 5, UnitPrice: 200, Allocation: core.Shared},
		},
		Totals: core.InvoiceTotals{Subtotal: 2000, TaxAmount: 400, GrandTotal: 2400, PartyAShare: 1920, PartyBShare: 480},
	}
}

func TestMigrations(t *testing.T) {
	_, path := newTestRepo(t)

	// Running again is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != 2 || dirty {
		t.Errorf("SchemaVersion() = %d, dirty %v; want 2, false", v, dirty)
	}
}

func TestInvoiceRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	want := sampleInvoice("F-001", core.NewDate(2024, 2, 1))
	id, err := repo.CreateInvoice(ctx, want)
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	want.ID = id

	got, err := repo.GetInvoice(ctx, id)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(core.Invoice{}, "CreatedAt")); diff != "" {
		t.Errorf("GetInvoice() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetInvoice_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetInvoice(context.Background(), 42)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetInvoice() error = %v, want ErrNotFound", err)
	}
}

func TestListInvoicesAndChecks(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, inv := range []core.Invoice{
		sampleInvoice("F-001", core.NewDate(2024, 1, 10)),
		sampleInvoice("F-002", core.NewDate(2024, 3, 5)),
		sampleInvoice("F-003", core.NewDate(2024, 2, 1)),
	} {
		if _, err := repo.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("CreateInvoice(%s) error = %v", inv.Number, err)
		}
	}

	list, err := repo.ListInvoices(ctx, 0)
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	var numbers []string
	for _, inv := range list {
		numbers = append(numbers, inv.Number)
	}
	if diff := cmp.Diff([]string{"F-002", "F-003", "F-001"}, numbers); diff != "" {
		t.Errorf("ListInvoices() order (-want +got):\n%s", diff)
	}

	// Due dates: 2024-05-09, 2024-07-03, 2024-05-31.
	checks, err := repo.ListChecksDue(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	if err != nil {
		t.Fatalf("ListChecksDue() error = %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("ListChecksDue() returned %d checks, want 2", len(checks))
	}
	if checks[0].Number != "F-001" || checks[1].Number != "F-003" {
		t.Errorf("ListChecksDue() = %s, %s; want F-001, F-003", checks[0].Number, checks[1].Number)
	}
	if !checks[1].DueDate.Equal(core.NewDate(2024, 5, 31).Time) || checks[1].Amount != 2400 {
		t.Errorf("ListChecksDue()[1] = %+v", checks[1])
	}
}

func TestQuotes(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	quotes := []core.PriceQuote{
		{Firm: "Alfa", Product: "Çimento", Detail: "50kg", Date: core.NewDate(2024, 1, 10), Price: 120, Currency: "TRY"},
		{Firm: "Beta", Product: "Çimento", Detail: "50kg", Date: core.NewDate(2024, 1, 12), Price: 118, Currency: "TRY"},
		{Firm: "Alfa", Product: "Çimento", Detail: "50kg", Date: core.NewDate(2024, 1, 12), Price: 115, Currency: "TRY"},
	}
	var ids []int64
	for _, q := range quotes {
		id, err := repo.CreateQuote(ctx, q)
		if err != nil {
			t.Fatalf("CreateQuote() error = %v", err)
		}
		ids = append(ids, id)
	}

	got, err := repo.ListQuotes(ctx)
	if err != nil {
		t.Fatalf("ListQuotes() error = %v", err)
	}
	gotIDs := make([]int64, len(got))
	for i, q := range got {
		gotIDs[i] = q.ID
	}
	if diff := cmp.Diff([]int64{ids[2], ids[1], ids[0]}, gotIDs); diff != "" {
		t.Errorf("ListQuotes() order (-want +got):\n%s", diff)
	}

	one, err := repo.GetQuote(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetQuote() error = %v", err)
	}
	want := quotes[0]
	want.ID = ids[0]
	if diff := cmp.Diff(want, one); diff != "" {
		t.Errorf("GetQuote() mismatch (-want +got):\n%s", diff)
	}

	if err := repo.DeleteQuote(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteQuote() error = %v", err)
	}
	if err := repo.DeleteQuote(ctx, ids[1]); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteQuote() twice error = %v, want ErrNotFound", err)
	}
	got, _ = repo.ListQuotes(ctx)
	if len(got) != 2 {
		t.Errorf("ListQuotes() after delete = %d quotes, want 2", len(got))
	}
}

func TestSyncQueue(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.EnqueueSync(ctx, core.SyncInvoice, 7)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}
	second, _ := repo.EnqueueSync(ctx, core.SyncQuote, 3)
	if _, err := repo.EnqueueSync(ctx, "bogus", 1); err == nil {
		t.Error("EnqueueSync() accepted unknown kind")
	}

	items, err := repo.DequeueSync(ctx, 10)
	if err != nil {
		t.Fatalf("DequeueSync() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != first || items[0].Kind != core.SyncInvoice || items[0].EntityID != 7 {
		t.Fatalf("DequeueSync() = %+v", items)
	}
	if items[0].Status != SyncProcessing {
		t.Errorf("dequeued status = %q, want processing", items[0].Status)
	}

	again, _ := repo.DequeueSync(ctx, 10)
	if len(again) != 0 {
		t.Errorf("claimed rows dequeued twice: %+v", again)
	}

	if err := repo.MarkSynced(ctx, first); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := repo.MarkSyncFailed(ctx, second, "quota exceeded", true); err != nil {
		t.Fatalf("MarkSyncFailed(retry) error = %v", err)
	}

	retried, _ := repo.DequeueSync(ctx, 10)
	if len(retried) != 1 || retried[0].Attempts != 1 || retried[0].LastError != "quota exceeded" {
		t.Fatalf("retry dequeue = %+v", retried)
	}
	if err := repo.MarkSyncFailed(ctx, second, "quota exceeded", false); err != nil {
		t.Fatalf("MarkSyncFailed() error = %v", err)
	}

	stats, err := repo.SyncStats(ctx)
	if err != nil {
		t.Fatalf("SyncStats() error = %v", err)
	}
	if diff := cmp.Diff(SyncStats{Completed: 1, Failed: 1}, stats); diff != "" {
		t.Errorf("SyncStats() (-want +got):\n%s", diff)
	}

	if n, _ := repo.RetryFailedSyncs(ctx); n != 1 {
		t.Errorf("RetryFailedSyncs() = %d, want 1", n)
	}
	if n, _ := repo.CleanupCompletedSyncs(ctx, time.Now().Add(time.Hour)); n != 1 {
		t.Errorf("CleanupCompletedSyncs() = %d, want 1", n)
	}
	if err := repo.MarkSynced(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MarkSynced(missing) error = %v, want ErrNotFound", err)
	}
}

func TestResetStaleProcessing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	repo.EnqueueSync(ctx, core.SyncInvoice, 1)
	if items, _ := repo.DequeueSync(ctx, 1); len(items) != 1 {
		t.Fatalf("expected one claimed row")
	}
	n, err := repo.ResetStaleProcessing(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetStaleProcessing() = %d, %v; want 1, nil", n, err)
	}
	if items, _ := repo.DequeueSync(ctx, 1); len(items) != 1 {
		t.Error("reset row not dequeued again")
	}
}
