package memory

import (
	"context"
	"fmt"
	"sync"

	"santiye/internal/core"
	ports "santiye/internal/sheets"
)

// Store keeps sheet rows in memory. It backs local runs without Google
// credentials and the worker tests.
type Store struct {
	mu       sync.Mutex
	invoices [][]any
	quotes   [][]any
	digest   [][]any
	// FailNext makes the next write return this error once.
	FailNext error
}

var _ ports.Writer = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendInvoice(_ context.Context, inv core.Invoice) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return "", err
	}
	s.invoices = append(s.invoices, ports.InvoiceRow(inv))
	return fmt.Sprintf("mem:invoices:%d", len(s.invoices)), nil
}

func (s *Store) AppendQuote(_ context.Context, q core.PriceQuote) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return "", err
	}
	s.quotes = append(s.quotes, ports.QuoteRow(q))
	return fmt.Sprintf("mem:quotes:%d", len(s.quotes)), nil
}

func (s *Store) WriteCheckDigest(_ context.Context, asOf core.Date, checks []core.CheckDue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.digest = ports.CheckDigestRows(asOf, checks)
	return nil
}

func (s *Store) Invoices() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.invoices...)
}

func (s *Store) Quotes() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.quotes...)
}

// Digest returns the last written check digest including its header row.
func (s *Store) Digest() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.digest...)
}

func (s *Store) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}
