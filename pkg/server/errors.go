package server

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the JSON envelope for error responses.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// Scope and RetryAfterSeconds are set on rate limit errors.
	Scope             string `json:"scope,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// writeError writes a JSON error response. extra, when non-nil, fills in the
// rate limit fields.
func writeError(w http.ResponseWriter, status int, errType, message string, extra *errorDetail) {
	detail := errorDetail{Type: errType, Message: message}
	if extra != nil {
		detail.Scope = extra.Scope
		detail.RetryAfterSeconds = extra.RetryAfterSeconds
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: detail})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
