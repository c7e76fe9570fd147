package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"santiye/internal/cache"
	"santiye/internal/core"
	"santiye/internal/log"
	"santiye/internal/pricematrix"
)

// MatrixQuery selects the matrix view.
type MatrixQuery struct {
	GroupByDate bool
	Filter      string
}

func (q MatrixQuery) cacheKey() string {
	return strconv.FormatBool(q.GroupByDate) + "|" + strings.TrimSpace(q.Filter)
}

// QuoteService stores price quotes and serves the comparison matrix. Built
// matrices are cached per query and dropped on every write.
type QuoteService struct {
	store  QuoteStore
	cache  cache.Cache[pricematrix.Matrix]
	sync   syncNotifier
	logger *log.Logger

	// gen counts writes. A matrix built from quotes loaded under an older
	// generation is returned but never cached.
	mu  sync.Mutex
	gen uint64
}

// NewQuoteService creates the service. matrices may be nil to disable caching.
func NewQuoteService(store QuoteStore, queue SyncEnqueuer, publisher Publisher, matrices cache.Cache[pricematrix.Matrix], logger *log.Logger) *QuoteService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentQuote)
	return &QuoteService{
		store:  store,
		cache:  matrices,
		sync:   syncNotifier{queue: queue, publisher: publisher, logger: logger},
		logger: logger,
	}
}

// Add validates and stores a quote and returns it with its id.
func (s *QuoteService) Add(ctx context.Context, q core.PriceQuote) (core.PriceQuote, error) {
	q.Firm = strings.TrimSpace(q.Firm)
	q.Product = strings.TrimSpace(q.Product)
	q.Detail = strings.TrimSpace(q.Detail)
	q.Currency = strings.ToUpper(strings.TrimSpace(q.Currency))
	if q.Currency == "" {
		q.Currency = core.DefaultCurrency
	}
	if err := q.Validate(); err != nil {
		return core.PriceQuote{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	id, err := s.store.CreateQuote(ctx, q)
	if err != nil {
		return core.PriceQuote{}, fmt.Errorf("save quote: %w", err)
	}
	q.ID = id
	s.invalidate()

	s.logger.InfoContext(ctx, "Price quote added",
		log.NewFields().WithOperation(log.OpCreate).WithQuote(id, q.Firm, q.Product).ToSlice()...)

	s.sync.notify(ctx, core.SyncQuote, id)
	return q, nil
}

func (s *QuoteService) Get(ctx context.Context, id int64) (core.PriceQuote, error) {
	return s.store.GetQuote(ctx, id)
}

// List returns every stored quote, newest first.
func (s *QuoteService) List(ctx context.Context) ([]core.PriceQuote, error) {
	return s.store.ListQuotes(ctx)
}

func (s *QuoteService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteQuote(ctx, id); err != nil {
		return err
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Price quote deleted",
		log.FieldOperation, log.OpDelete, log.FieldQuoteID, id)
	return nil
}

// Matrix builds the comparison grid over every stored quote.
func (s *QuoteService) Matrix(ctx context.Context, q MatrixQuery) (pricematrix.Matrix, error) {
	key := q.cacheKey()
	if s.cache != nil {
		if m, ok := s.cache.Get(key); ok {
			return m, nil
		}
	}

	gen := s.generation()
	quotes, err := s.store.ListQuotes(ctx)
	if err != nil {
		return pricematrix.Matrix{}, fmt.Errorf("load quotes: %w", err)
	}

	m := pricematrix.Builder{GroupByDate: q.GroupByDate, Filter: q.Filter}.Build(quotes)
	if s.cache != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.cache.Set(key, m)
		}
		s.mu.Unlock()
	}

	s.logger.DebugContext(ctx, "Price matrix built",
		log.FieldGroupByDate, q.GroupByDate,
		log.FieldRows, len(m.Rows),
		"quotes", len(quotes))
	return m, nil
}

func (s *QuoteService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// invalidate must run after the write is committed.
func (s *QuoteService) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cache != nil {
		s.cache.Purge()
	}
}
