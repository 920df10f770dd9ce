package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"floodgate-hq/floodgate/pkg/ratelimit"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitMiddleware checks each request against the evaluator under the
// (scope, identifier) pair extracted by keyFunc. Rejected requests receive
// 429 with Retry-After; admitted requests proceed with X-RateLimit-* headers
// set and the decision available via GetDecision.
func RateLimitMiddleware(evaluator *ratelimit.Evaluator, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, identifier := keyFunc(r)

			decision, err := evaluator.Check(r.Context(), scope, identifier)
			if err != nil {
				// Check never returns an error today; treat one as admit.
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				retryAfter := retryAfterSeconds(decision.RetryAfter)
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))

				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					fmt.Sprintf("rate limit exceeded for scope %s", decision.Scope),
					&errorDetail{Scope: decision.Scope, RetryAfterSeconds: retryAfter})
				return
			}

			ctx := context.WithValue(r.Context(), DecisionKey, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDecision extracts the rate limit decision from the context. Returns nil
// if the request did not pass through RateLimitMiddleware.
func GetDecision(ctx context.Context) *ratelimit.Decision {
	if decision, ok := ctx.Value(DecisionKey).(*ratelimit.Decision); ok {
		return decision
	}
	return nil
}

func setRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	if d.Limit <= 0 {
		return
	}
	w.Header().Set(HeaderRateLimitLimit, strconv.FormatInt(d.Limit, 10))
	w.Header().Set(HeaderRateLimitRemaining, strconv.FormatInt(d.Remaining, 10))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(d.Reset.Unix(), 10))
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
