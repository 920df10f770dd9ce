package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Action defines what to do when a rule's limit is exceeded.
type Action string

const (
	// ActionReject rejects the request.
	ActionReject Action = "reject"

	// ActionLog records the violation but admits the request.
	ActionLog Action = "log"
)

// FailurePolicy decides admission when the counter store is unreachable.
type FailurePolicy string

const (
	// FailOpen admits all requests while the store is unreachable.
	FailOpen FailurePolicy = "fail_open"

	// FailClosed rejects all limited requests while the store is unreachable.
	FailClosed FailurePolicy = "fail_closed"
)

// Rule is a single scope quota. Rules are immutable once loaded.
type Rule struct {
	// Scope is the dimension the rule applies to (route, user, IP, ...).
	Scope string

	// Limit is the maximum number of admitted requests per window.
	Limit int64

	// Window is the fixed window duration.
	Window time.Duration

	// Action on violation. Defaults to ActionReject.
	Action Action
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Scope is the rule scope that was evaluated.
	Scope string

	// Identifier is the specific identifier within the scope.
	Identifier string

	// Limit is the configured limit, zero when the scope is unlimited.
	Limit int64

	// CurrentCount is the bucket counter after this check's increment.
	CurrentCount int64

	// Remaining is how many admits remain in the current bucket.
	Remaining int64

	// Reset is when the current bucket ends.
	Reset time.Time

	// RetryAfter suggests how long to wait before retrying (if rejected).
	RetryAfter time.Duration

	// StoreDegraded is set when the decision came from the failure policy
	// rather than a counter, because the store was unreachable.
	StoreDegraded bool
}

// Err returns a *LimitError describing the violation, or nil when the
// request was admitted.
func (d *Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &LimitError{
		Scope:      d.Scope,
		Identifier: d.Identifier,
		Limit:      d.Limit,
		Current:    d.CurrentCount,
		RetryAfter: d.RetryAfter,
		Err:        ErrRateLimitExceeded,
	}
}

// Error types for limit violations.
var (
	// ErrRateLimitExceeded is returned when a rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// LimitError provides detailed context about a limit violation.
type LimitError struct {
	// Scope is the rule scope that was exceeded.
	Scope string

	// Identifier is the specific identifier within the scope.
	Identifier string

	// Limit is the configured limit value.
	Limit int64

	// Current is the counter value that exceeded the limit.
	Current int64

	// RetryAfter is how long to wait until the window resets.
	RetryAfter time.Duration

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for scope %s: current=%d, limit=%d, retry after %s",
		e.Scope, e.Current, e.Limit, e.RetryAfter)
}

// Unwrap returns the underlying error for error wrapping.
func (e *LimitError) Unwrap() error {
	return e.Err
}
