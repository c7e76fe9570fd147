package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateAddDaysCrossesLeapDay(t *testing.T) {
	got := NewDate(2024, 2, 1).AddDays(120)
	if got.String() != "2024-05-31" {
		t.Fatalf("got %s", got)
	}
	if n := NewDate(2024, 2, 1).DaysUntil(got); n != 120 {
		t.Fatalf("DaysUntil = %d", n)
	}
}

func TestDateLocaleAndJSON(t *testing.T) {
	d := NewDate(2024, 3, 7)
	if d.Locale() != "07.03.2024" {
		t.Fatalf("Locale = %q", d.Locale())
	}
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2024-03-07"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var back Date
	if err := json.Unmarshal([]byte(`"2024-03-07T15:04:05Z"`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("roundtrip got %s", back)
	}
}

func TestParseAllocation(t *testing.T) {
	cases := map[string]Allocation{
		"party_a": PartyA,
		"B":       PartyB,
		"Shared":  Shared,
		" ortak ": Shared,
	}
	for in, want := range cases {
		got, err := ParseAllocation(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseAllocation("nobody"); !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("expected ErrInvalidAllocation, got %v", err)
	}
}

func TestLineItemValidate(t *testing.T) {
	good := LineItem{ProductID: "cimento-50kg", Quantity: 2, UnitPrice: 10, Allocation: Shared}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		item LineItem
		want error
	}{
		{LineItem{ProductID: "", Quantity: 1, UnitPrice: 1, Allocation: PartyA}, ErrEmptyProduct},
		{LineItem{ProductID: "p", Quantity: 0, UnitPrice: 1, Allocation: PartyA}, ErrInvalidQuantity},
		{LineItem{ProductID: "p", Quantity: 1, UnitPrice: -1, Allocation: PartyA}, ErrInvalidPrice},
		{LineItem{ProductID: "p", Quantity: 1, UnitPrice: 1, Allocation: "x"}, ErrInvalidAllocation},
	}
	for i, tc := range bads {
		if err := tc.item.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestSharedSplitValidate(t *testing.T) {
	if err := DefaultSharedSplit.Validate(); err != nil {
		t.Fatalf("default split: %v", err)
	}
	for _, s := range []SharedSplit{
		{PartyA: 0.7, PartyB: 0.4},
		{PartyA: -0.2, PartyB: 1.2},
		{PartyA: math.NaN(), PartyB: math.NaN()},
		{PartyA: math.NaN(), PartyB: 0.4},
		{PartyA: math.Inf(1), PartyB: 0},
	} {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("%v/%v: expected ErrInvalidSplit, got %v", s.PartyA, s.PartyB, err)
		}
	}
}
