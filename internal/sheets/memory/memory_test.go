package memory

import (
	"context"
	"errors"
	"testing"

	"santiye/internal/core"
)

func TestStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendInvoice(ctx, core.Invoice{Number: "F-1", Date: core.NewDate(2024, 1, 1)})
	if err != nil || ref != "mem:invoices:1" {
		t.Fatalf("AppendInvoice() = %q, %v", ref, err)
	}
	if _, err := s.AppendQuote(ctx, core.PriceQuote{Firm: "Alfa"}); err != nil {
		t.Fatalf("AppendQuote() error = %v", err)
	}
	if err := s.WriteCheckDigest(ctx, core.NewDate(2024, 1, 1), nil); err != nil {
		t.Fatalf("WriteCheckDigest() error = %v", err)
	}

	if len(s.Invoices()) != 1 || len(s.Quotes()) != 1 || len(s.Digest()) != 1 {
		t.Errorf("unexpected contents: %d invoices, %d quotes, %d digest rows",
			len(s.Invoices()), len(s.Quotes()), len(s.Digest()))
	}
	if got := s.Invoices()[0][0]; got != "F-1" {
		t.Errorf("invoice row starts with %v", got)
	}
}

func TestStore_FailNext(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailNext = boom

	if _, err := s.AppendQuote(context.Background(), core.PriceQuote{}); !errors.Is(err, boom) {
		t.Fatalf("AppendQuote() error = %v, want %v", err, boom)
	}
	if _, err := s.AppendQuote(context.Background(), core.PriceQuote{}); err != nil {
		t.Fatalf("failure should be consumed, got %v", err)
	}
}
