// Package response provides helpers for writing the uniform JSON envelope
// both school endpoints answer with.
//
// ONE SHAPE FOR EVERY ANSWER
// ──────────────────────────
//
//	{"success": true, ...}
//	{"success": false, "error": "<stringified cause>"}
//
// A client checks "success" first and only then looks for "id", "schools"
// or "error". Handlers never call json.Marshal themselves; they build an
// Envelope with one of the constructors below and pass it to WriteJSON.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/validation"
)

// Envelope is the body of every /api/schools response. Optional members
// are omitted when empty; Schools is a pointer so an empty listing still
// encodes as [] rather than disappearing.
type Envelope struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	ID      int64                  `json:"id,omitempty"`
	Schools *[]types.School        `json:"schools,omitempty"`
	Fields  validation.FieldErrors `json:"fields,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON sets the content type, writes status, then encodes data.
//
// ORDER MATTERS: Header().Set → WriteHeader → body.
// ──────────────
// Headers are flushed by the first WriteHeader (or the first Write, which
// calls WriteHeader(200) for you). A Content-Type set after that point is
// silently dropped, and a second WriteHeader only logs a warning.
//
// json.NewEncoder streams straight into w instead of building a []byte
// first. The returned error is the encoder's; the status has already been
// sent by then, so callers can only log it.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Created acknowledges a stored record.
func Created(id int64) Envelope {
	return Envelope{Success: true, ID: id}
}

// Schools wraps a listing. A nil slice is reported as empty.
func Schools(schools []types.School) Envelope {
	if schools == nil {
		schools = []types.School{}
	}
	return Envelope{Success: true, Schools: &schools}
}

// GeneralError wraps any error as a failed envelope.
func GeneralError(err error) Envelope {
	return Envelope{
		Success: false,
		Error:   err.Error(),
	}
}

// ValidationError reports per-field problems so a form can attach each
// message to its input.
func ValidationError(errs validation.FieldErrors) Envelope {
	return Envelope{
		Success: false,
		Error:   "validation failed: " + errs.Error(),
		Fields:  errs,
	}
}
