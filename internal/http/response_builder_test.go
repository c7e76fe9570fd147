package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"santiye/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/quotes/1").
		JSON(map[string]int{"id": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if rr.Header().Get("Location") != "/api/quotes/1" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	if rr.Body.String() != `{"id":1}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("status = %d body = %q", rr.Code, rr.Body.String())
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"malformed", malformed("invalid id %q", "x"), http.StatusBadRequest, `{"error":"invalid id \"x\""}`},
		{"validation", fmt.Errorf("%w: %w", core.ErrValidation, core.ErrNoItems), http.StatusUnprocessableEntity, `{"error":"validation failed: invoice has no line items"}`},
		{"not found", fmt.Errorf("invoice 9: %w", core.ErrNotFound), http.StatusNotFound, `{"error":"not found"}`},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ErrorFor(tt.err).Write(rr)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if rr.Body.String() != tt.wantBody {
				t.Errorf("body = %s, want %s", rr.Body.String(), tt.wantBody)
			}
		})
	}
}
