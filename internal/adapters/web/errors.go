package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"growmart/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to an HTTP status. When the error concerns an
// entity referenced from a request body (referenced == true), a missing
// product, customer or grower is the client's bad input rather than a missing resource.
func statusFor(kind core.ErrorKind, referenced bool) int {
	switch kind {
	case core.KindProductNotFound, core.KindCustomerNotFound, core.KindGrowerNotFound:
		if referenced {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case core.KindOrderNotFound:
		return http.StatusNotFound
	case core.KindInvalidOrder:
		return http.StatusBadRequest
	case core.KindInvalidTransition, core.KindInsufficientStock, core.KindDuplicateRequest:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, referenced bool) {
	var oe *core.OrderError
	if !errors.As(err, &oe) {
		slog.Error("unclassified service error", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	status := statusFor(oe.Kind, referenced)
	if status >= http.StatusInternalServerError {
		// Storage details stay in the log; the client gets the summary.
		slog.Error("request failed", "kind", oe.Kind, "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, r, oe.Message, string(oe.Kind), status)
		return
	}
	writeError(w, r, err.Error(), string(oe.Kind), status)
}
