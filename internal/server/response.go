// Package server is the HTTP API layer: a net/http mux with recovery and
// logging middleware, JSON response envelopes, and handlers over the plan
// store, the planner, and the document exporters.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard response wrapper.
// Success: {"ok": true, "data": {...}}
// Error:   {"ok": false, "error": {"code": "...", "message": "..."}}
type Envelope struct {
	OK    bool          `json:"ok"`
	Data  any           `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload holds structured error information.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Standard error codes mapped to HTTP status codes.
const (
	ErrValidation = "validation_error" // 400
	ErrNotFound   = "not_found"        // 404
	ErrConflict   = "conflict"         // 409
	ErrUpstream   = "generation_failed" // 502
	ErrInternal   = "internal"         // 500
)

// WriteSuccess writes a JSON success envelope with the given data and status.
func WriteSuccess(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{OK: true, Data: data}); err != nil {
		slog.Error("write success response", "err", err)
	}
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		OK:    false,
		Error: &ErrorPayload{Code: code, Message: message},
	}); err != nil {
		slog.Error("write error response", "err", err)
	}
}
