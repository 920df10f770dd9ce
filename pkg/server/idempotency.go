package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"floodgate-hq/floodgate/pkg/idempotency"
)

const (
	// IdempotencyKeyHeader is the header carrying the client's idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyReplayedHeader marks responses served from the cache.
	IdempotencyReplayedHeader = "Idempotency-Replayed"
)

// errNotCacheable signals that a response must not be stored. The response
// itself has already been buffered and is still delivered to the client.
var errNotCacheable = &notCacheableError{}

type notCacheableError struct{}

func (*notCacheableError) Error() string { return "response not cacheable" }

// storedResponse is the cached form of a successful response.
type storedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bufferedResponse captures a handler's response for later replay.
type bufferedResponse struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (br *bufferedResponse) Header() http.Header { return br.header }

func (br *bufferedResponse) WriteHeader(code int) { br.statusCode = code }

func (br *bufferedResponse) Write(b []byte) (int, error) { return br.body.Write(b) }

// flush copies the buffered response to the real writer.
func (br *bufferedResponse) flush(w http.ResponseWriter) {
	for key, values := range br.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(br.statusCode)
	_, _ = w.Write(br.body.Bytes())
}

// IdempotencyMiddleware replays cached responses for repeated requests
// carrying the same Idempotency-Key. Only 2xx responses are cached; errors
// pass through uncached so the client can retry. Requests without the header
// and non-mutating methods bypass the cache.
func IdempotencyMiddleware(cache *idempotency.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			// Scope the key by method and path so the same key cannot
			// replay a different endpoint's response.
			cacheKey := r.Method + ":" + r.URL.Path + ":" + key

			var buffered *bufferedResponse
			raw, cached, err := cache.Do(r.Context(), cacheKey, func(ctx context.Context) (any, error) {
				buffered = newBufferedResponse()
				next.ServeHTTP(buffered, r)

				if buffered.statusCode >= 200 && buffered.statusCode < 300 {
					return storedResponse{
						StatusCode:  buffered.statusCode,
						ContentType: buffered.header.Get("Content-Type"),
						Body:        buffered.body.Bytes(),
					}, nil
				}
				return nil, errNotCacheable
			})

			// The handler ran: deliver its response whether or not it was
			// cacheable or the store write succeeded.
			if buffered != nil {
				buffered.flush(w)
				return
			}

			if err != nil || !cached {
				writeError(w, http.StatusInternalServerError, "internal_error",
					"failed to process idempotent request", nil)
				return
			}

			var stored storedResponse
			if decodeErr := json.Unmarshal(raw, &stored); decodeErr != nil {
				writeError(w, http.StatusInternalServerError, "internal_error",
					"failed to decode cached response", nil)
				return
			}

			if stored.ContentType != "" {
				w.Header().Set("Content-Type", stored.ContentType)
			}
			w.Header().Set(IdempotencyReplayedHeader, "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
