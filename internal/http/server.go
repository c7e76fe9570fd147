package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"santiye/internal/core"
	"santiye/internal/log"
	"santiye/internal/middleware/ratelimit"
	"santiye/internal/middleware/security"
	"santiye/internal/middleware/trace"
	"santiye/internal/pricematrix"
	"santiye/internal/services"
)

// Service ports implemented by the services package.
type (
	InvoiceAPI interface {
		Preview(draft core.InvoiceDraft) (core.Invoice, error)
		Create(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error)
		Get(ctx context.Context, id int64) (core.Invoice, error)
		List(ctx context.Context, limit int) ([]core.Invoice, error)
		DueCalendar(ctx context.Context, from, to core.Date) ([]core.CheckDue, error)
	}

	QuoteAPI interface {
		Add(ctx context.Context, q core.PriceQuote) (core.PriceQuote, error)
		Get(ctx context.Context, id int64) (core.PriceQuote, error)
		List(ctx context.Context) ([]core.PriceQuote, error)
		Delete(ctx context.Context, id int64) error
		Matrix(ctx context.Context, q services.MatrixQuery) (pricematrix.Matrix, error)
	}

	// Pinger backs the readiness probe.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

var (
	_ InvoiceAPI = (*services.InvoiceService)(nil)
	_ QuoteAPI   = (*services.QuoteService)(nil)
)

// Options configures the server.
type Options struct {
	Addr string
	// CheckWindowDays is the default span of GET /api/checks.
	CheckWindowDays int
	RateLimit       ratelimit.Config
	Headers         security.HeadersConfig
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

func DefaultOptions(addr string) Options {
	return Options{
		Addr:            addr,
		CheckWindowDays: 30,
		RateLimit:       ratelimit.DefaultConfig(),
		Headers:         security.DefaultHeadersConfig(),
	}
}

type Server struct {
	http.Server
	invoices    InvoiceAPI
	quotes      QuoteAPI
	ready       Pinger
	limiter     *ratelimit.Limiter
	logger      *log.Logger
	checkWindow int
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// ready may be nil, in which case /readyz always succeeds.
func NewServer(opts Options, invoices InvoiceAPI, quotes QuoteAPI, ready Pinger, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.CheckWindowDays < 1 {
		opts.CheckWindowDays = 30
	}

	clientIP := security.NewClientIP()
	for _, cidr := range opts.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		invoices:    invoices,
		quotes:      quotes,
		ready:       ready,
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		logger:      logger.WithComponent(log.ComponentHTTP),
		checkWindow: opts.CheckWindowDays,
		now:         time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	mux.HandleFunc("POST /api/invoices/preview", s.handlePreviewInvoice)
	mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	mux.HandleFunc("GET /api/invoices/{id}", s.handleGetInvoice)
	mux.HandleFunc("GET /api/invoices/{id}/pdf", s.handleInvoicePDF)
	mux.HandleFunc("GET /api/checks", s.handleChecksDue)

	mux.HandleFunc("POST /api/quotes", s.handleAddQuote)
	mux.HandleFunc("GET /api/quotes", s.handleListQuotes)
	mux.HandleFunc("GET /api/quotes/{id}", s.handleGetQuote)
	mux.HandleFunc("DELETE /api/quotes/{id}", s.handleDeleteQuote)
	mux.HandleFunc("GET /api/price-matrix", s.handlePriceMatrix)
	mux.HandleFunc("GET /api/price-matrix.xlsx", s.handlePriceMatrixXLSX)

	limited := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(mux)
	headers := security.NewHeadersMiddleware(opts.Headers).Middleware(limited)
	traced := trace.NewMiddleware(logger, clientIP.Extract).Middleware(headers)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           traced,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// fail logs err when it is a server-side failure and writes the mapped response.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string, args ...any) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), msg, append(args, log.FieldError, err)...)
	}
	resp.Write(w)
}
