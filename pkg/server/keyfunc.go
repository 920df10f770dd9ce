package server

import (
	"net"
	"net/http"
	"strings"
)

// APIKeyHeader is the header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// KeyFunc extracts the (scope, identifier) pair a request is limited under.
type KeyFunc func(r *http.Request) (scope, identifier string)

// APIKeyFunc limits by API key when present, falling back to client IP.
func APIKeyFunc(r *http.Request) (string, string) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return "api_key", key
	}
	return "ip", ClientIP(r)
}

// IPKeyFunc limits by client IP.
func IPKeyFunc(r *http.Request) (string, string) {
	return "ip", ClientIP(r)
}

// RouteKeyFunc limits by request path, shared across all callers.
func RouteKeyFunc(r *http.Request) (string, string) {
	return "route", r.URL.Path
}

// ClientIP extracts the originating client IP. Proxy headers are consulted
// first: X-Forwarded-For may carry a comma-separated chain where the first
// entry is the original client.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
