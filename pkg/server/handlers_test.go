package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"floodgate-hq/floodgate/pkg/config"
	"floodgate-hq/floodgate/pkg/ratelimit"
	"floodgate-hq/floodgate/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	backend := store.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })

	rules, err := ratelimit.NewRuleset([]ratelimit.Rule{
		{Scope: "api_key", Limit: 2, Window: time.Hour},
	}, nil)
	if err != nil {
		t.Fatalf("NewRuleset failed: %v", err)
	}

	eval := ratelimit.NewEvaluator(backend, rules, ratelimit.EvaluatorConfig{
		Logger: discardLogger(),
	})

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	return NewServer(cfg, Options{
		Evaluator: eval,
		Logger:    discardLogger(),
	})
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Expected status ok, got %q", body.Status)
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestCheckEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/check",
			strings.NewReader(`{"scope":"api_key","identifier":"key-1"}`))
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 2; i++ {
		rec := do()
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected check %d to return 200, got %d", i, rec.Code)
		}

		var body checkResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode check response: %v", err)
		}
		if !body.Allowed {
			t.Errorf("Expected check %d to be allowed", i)
		}
		if body.Limit != 2 {
			t.Errorf("Expected limit 2, got %d", body.Limit)
		}
	}

	// Third check tips the counter over the limit
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get(HeaderRetryAfter) == "" {
		t.Error("Expected Retry-After header")
	}

	var body checkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode check response: %v", err)
	}
	if body.Allowed {
		t.Error("Expected third check to be rejected")
	}
	if body.RetryAfterSeconds <= 0 {
		t.Errorf("Expected positive retry_after_seconds, got %d", body.RetryAfterSeconds)
	}
}

func TestCheckEndpoint_UnlimitedScope(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/check",
		strings.NewReader(`{"scope":"unknown","identifier":"x"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unlimited scope, got %d", rec.Code)
	}

	var body checkResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Allowed {
		t.Error("Expected unlimited scope to be allowed")
	}
}

func TestCheckEndpoint_InvalidBody(t *testing.T) {
	handler := newTestServer(t).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{"},
		{"missing scope", `{"identifier":"x"}`},
		{"missing identifier", `{"scope":"api_key"}`},
		{"blank scope", `{"scope":"  ","identifier":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/check", strings.NewReader(tt.body))
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestCheckEndpoint_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestServer_RequestIDOnResponses(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected X-Request-ID on every response")
	}
}
