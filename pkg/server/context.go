package server

// contextKey is a private type for context values set by middleware.
type contextKey string

const (
	// RequestIDKey holds the request ID assigned by RequestIDMiddleware.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey holds the request start time set by LoggingMiddleware.
	StartTimeKey contextKey = "start_time"

	// DecisionKey holds the *ratelimit.Decision set by RateLimitMiddleware.
	DecisionKey contextKey = "ratelimit_decision"
)
