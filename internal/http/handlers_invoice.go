package http

import (
	"bytes"
	"net/http"
	"strconv"

	"santiye/internal/core"
	"santiye/internal/export"
	"santiye/internal/log"
)

func decodeDraft(w http.ResponseWriter, r *http.Request) (core.InvoiceDraft, error) {
	var draft core.InvoiceDraft
	if err := DecodeJSON(w, r, &draft); err != nil {
		return core.InvoiceDraft{}, err
	}
	draft.Number = sanitizeInput(draft.Number)
	draft.Supplier = sanitizeInput(draft.Supplier)
	draft.Currency = sanitizeInput(draft.Currency)
	for i := range draft.Items {
		draft.Items[i].ProductID = sanitizeInput(draft.Items[i].ProductID)
	}
	return draft, nil
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(w, r)
	if err != nil {
		fail(w, r, err, "Decode invoice failed")
		return
	}

	inv, err := s.invoices.Create(r.Context(), draft)
	if err != nil {
		fail(w, r, err, "Create invoice failed", log.FieldInvoiceNo, draft.Number)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/invoices/"+strconv.FormatInt(inv.ID, 10)).
		JSON(inv).
		Write(w)
}

// handlePreviewInvoice computes totals and the due date without storing anything.
func (s *Server) handlePreviewInvoice(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(w, r)
	if err != nil {
		fail(w, r, err, "Decode invoice failed")
		return
	}

	inv, err := s.invoices.Preview(draft)
	if err != nil {
		fail(w, r, err, "Preview invoice failed")
		return
	}
	NewJSONResponse().JSON(inv).Write(w)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	limit, err := QueryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		fail(w, r, err, "Parse limit failed")
		return
	}

	invoices, err := s.invoices.List(r.Context(), limit)
	if err != nil {
		fail(w, r, err, "List invoices failed")
		return
	}
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	NewJSONResponse().JSON(invoices).Write(w)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "Parse invoice id failed")
		return
	}

	inv, err := s.invoices.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Get invoice failed", log.FieldInvoiceID, id)
		return
	}
	NewJSONResponse().JSON(inv).Write(w)
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "Parse invoice id failed")
		return
	}

	inv, err := s.invoices.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Get invoice failed", log.FieldInvoiceID, id)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteInvoicePDF(&buf, inv); err != nil {
		fail(w, r, err, "Render invoice PDF failed", log.FieldInvoiceID, id)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="fatura-`+attachmentName(inv.Number)+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleChecksDue lists checks due in [from, to]. Both default to a window
// starting today.
func (s *Server) handleChecksDue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := QueryDate(query, "from", core.DateOf(s.now()))
	if err != nil {
		fail(w, r, err, "Parse from failed")
		return
	}
	to, err := QueryDate(query, "to", from.AddDays(s.checkWindow))
	if err != nil {
		fail(w, r, err, "Parse to failed")
		return
	}

	checks, err := s.invoices.DueCalendar(r.Context(), from, to)
	if err != nil {
		fail(w, r, err, "List checks due failed")
		return
	}

	var total float64
	for _, c := range checks {
		total += c.Amount
	}
	if checks == nil {
		checks = []core.CheckDue{}
	}
	NewJSONResponse().JSON(struct {
		From   core.Date       `json:"from"`
		To     core.Date       `json:"to"`
		Checks []core.CheckDue `json:"checks"`
		Total  float64         `json:"total"`
	}{from, to, checks, core.RoundAmount(total)}).Write(w)
}
