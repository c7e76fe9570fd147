// This file implements utilities for decoding JSON bodies, path ids and
// query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"santiye/internal/core"
)

// maxBodyBytes caps request bodies. An invoice with a few hundred items fits
// comfortably.
const maxBodyBytes = 1 << 20

// malformedRequestError marks input that could not be parsed at all, as
// opposed to well-formed input that fails validation.
type malformedRequestError struct {
	msg string
}

func (e *malformedRequestError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return &malformedRequestError{msg: fmt.Sprintf(format, args...)}
}

// DecodeJSON reads exactly one JSON value from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return malformed("unsupported content type %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return malformed("request body is empty")
		case errors.As(err, &maxErr):
			return malformed("request body exceeds %d bytes", maxErr.Limit)
		case errors.As(err, &syntaxErr):
			return malformed("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return malformed("field %q has the wrong type", typeErr.Field)
		case errors.Is(err, core.ErrInvalidDate):
			return malformed("%v", err)
		default:
			return malformed("malformed JSON: %v", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return malformed("request body must contain a single JSON object")
	}
	return nil
}

// PathID parses the {id} path segment as a positive integer.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, malformed("invalid id %q", raw)
	}
	return id, nil
}

// QueryDate parses a YYYY-MM-DD query parameter, returning def when absent.
func QueryDate(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, malformed("invalid %s date %q: want YYYY-MM-DD", key, v)
	}
	return d, nil
}

// QueryBool parses a boolean query parameter. Absent means false.
func QueryBool(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, malformed("invalid %s value %q: want true or false", key, v)
	}
	return b, nil
}

// QueryInt parses a non-negative integer query parameter, returning def when absent.
func QueryInt(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, malformed("invalid %s value %q", key, v)
	}
	return n, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// attachmentName reduces s to a safe download file name stem.
func attachmentName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "download"
	}
	return b.String()
}
