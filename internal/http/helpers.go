package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"anggaran/internal/middleware/trace"
)

// errorResponse is the JSON envelope for every non-2xx response. The
// request ID lets a client report an error that can be matched against
// the server log.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v with the given status. Encoding failures are
// unrecoverable at this point because the header is already out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendError writes the standard error envelope.
func sendError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// parseIntParam reads an optional integer query parameter. A missing or
// blank parameter yields the zero value, anything unparseable an error.
func parseIntParam(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return n, nil
}

// parseYearMonth reads the optional year and month filter parameters.
// Zero means no filter on that field.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	year, err = parseIntParam(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err = parseIntParam(r, "month")
	if err != nil {
		return 0, 0, err
	}
	if year < 0 {
		return 0, 0, fmt.Errorf("parameter %q must not be negative", "year")
	}
	if month < 0 || month > 12 {
		return 0, 0, fmt.Errorf("parameter %q must be between 1 and 12", "month")
	}
	return year, month, nil
}

// parseDocumentID reads the {id} path segment.
func parseDocumentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("document id must be a positive integer")
	}
	return id, nil
}
