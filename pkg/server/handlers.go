package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"floodgate-hq/floodgate/pkg/ratelimit"
)

// checkRequest is the body of POST /v1/check.
type checkRequest struct {
	// Scope is the rule scope to evaluate ("api_key", "ip", "route", ...).
	Scope string `json:"scope"`

	// Identifier is the specific subject within the scope.
	Identifier string `json:"identifier"`
}

// checkResponse reports a rate limit decision.
type checkResponse struct {
	Allowed           bool   `json:"allowed"`
	Scope             string `json:"scope"`
	Identifier        string `json:"identifier"`
	Limit             int64  `json:"limit,omitempty"`
	Remaining         int64  `json:"remaining"`
	Reset             int64  `json:"reset,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
	StoreDegraded     bool   `json:"store_degraded,omitempty"`
}

// checkHandler evaluates a quota on behalf of a remote caller.
type checkHandler struct {
	evaluator *ratelimit.Evaluator
}

func (h *checkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"only POST is supported", nil)
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request",
			"request body must be JSON with scope and identifier", nil)
		return
	}

	req.Scope = strings.TrimSpace(req.Scope)
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Scope == "" || req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "invalid_request",
			"scope and identifier must not be empty", nil)
		return
	}

	decision, err := h.evaluator.Check(r.Context(), req.Scope, req.Identifier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error",
			"rate limit check failed", nil)
		return
	}

	resp := checkResponse{
		Allowed:       decision.Allowed,
		Scope:         decision.Scope,
		Identifier:    decision.Identifier,
		Limit:         decision.Limit,
		Remaining:     decision.Remaining,
		StoreDegraded: decision.StoreDegraded,
	}
	if !decision.Reset.IsZero() {
		resp.Reset = decision.Reset.Unix()
	}

	setRateLimitHeaders(w, decision)

	status := http.StatusOK
	if !decision.Allowed {
		resp.RetryAfterSeconds = retryAfterSeconds(decision.RetryAfter)
		w.Header().Set(HeaderRetryAfter, strconv.FormatInt(resp.RetryAfterSeconds, 10))
		status = http.StatusTooManyRequests
	}

	writeJSON(w, status, resp)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// healthHandler reports liveness.
type healthHandler struct{}

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"only GET is supported", nil)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
	})
}
