package http

import (
	"bytes"
	"net/http"
	"strconv"

	"santiye/internal/core"
	"santiye/internal/export"
	"santiye/internal/log"
	"santiye/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleAddQuote(w http.ResponseWriter, r *http.Request) {
	var q core.PriceQuote
	if err := DecodeJSON(w, r, &q); err != nil {
		fail(w, r, err, "Decode quote failed")
		return
	}
	q.ID = 0
	q.Firm = sanitizeInput(q.Firm)
	q.Product = sanitizeInput(q.Product)
	q.Detail = sanitizeInput(q.Detail)

	saved, err := s.quotes.Add(r.Context(), q)
	if err != nil {
		fail(w, r, err, "Add quote failed", log.FieldFirm, q.Firm, log.FieldProduct, q.Product)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/quotes/"+strconv.FormatInt(saved.ID, 10)).
		JSON(saved).
		Write(w)
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.List(r.Context())
	if err != nil {
		fail(w, r, err, "List quotes failed")
		return
	}
	if quotes == nil {
		quotes = []core.PriceQuote{}
	}
	NewJSONResponse().JSON(quotes).Write(w)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "Parse quote id failed")
		return
	}
	q, err := s.quotes.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Get quote failed", log.FieldQuoteID, id)
		return
	}
	NewJSONResponse().JSON(q).Write(w)
}

func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "Parse quote id failed")
		return
	}
	if err := s.quotes.Delete(r.Context(), id); err != nil {
		fail(w, r, err, "Delete quote failed", log.FieldQuoteID, id)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func parseMatrixQuery(r *http.Request) (services.MatrixQuery, error) {
	query := r.URL.Query()
	group, err := QueryBool(query, "group_by_date")
	if err != nil {
		return services.MatrixQuery{}, err
	}
	return services.MatrixQuery{GroupByDate: group, Filter: sanitizeInput(query.Get("q"))}, nil
}

func (s *Server) handlePriceMatrix(w http.ResponseWriter, r *http.Request) {
	mq, err := parseMatrixQuery(r)
	if err != nil {
		fail(w, r, err, "Parse matrix query failed")
		return
	}
	m, err := s.quotes.Matrix(r.Context(), mq)
	if err != nil {
		fail(w, r, err, "Build price matrix failed", log.FieldGroupByDate, mq.GroupByDate)
		return
	}
	NewJSONResponse().JSON(m).Write(w)
}

func (s *Server) handlePriceMatrixXLSX(w http.ResponseWriter, r *http.Request) {
	mq, err := parseMatrixQuery(r)
	if err != nil {
		fail(w, r, err, "Parse matrix query failed")
		return
	}
	m, err := s.quotes.Matrix(r.Context(), mq)
	if err != nil {
		fail(w, r, err, "Build price matrix failed", log.FieldGroupByDate, mq.GroupByDate)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMatrixXLSX(&buf, m); err != nil {
		fail(w, r, err, "Write price matrix workbook failed", log.FieldRows, len(m.Rows))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="fiyat-karsilastirma.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
