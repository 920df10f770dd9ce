package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"floodgate-hq/floodgate/pkg/store"
)

// Evaluator decides whether a request is admitted under its scope's quota.
//
// Every check is one Increment round trip against the counter store; the
// admission decision is made locally from the returned count. The evaluator
// holds no in-process locks; correctness relies on the atomicity of the
// backend's increment.
type Evaluator struct {
	backend store.Backend
	rules   *Ruleset
	policy  FailurePolicy
	metrics *Metrics
	logger  *slog.Logger

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	// FailurePolicy decides admission when the store is unreachable.
	// Default: FailOpen
	FailurePolicy FailurePolicy

	// Metrics receives check outcomes. Optional.
	Metrics *Metrics

	// Logger for degraded-store and violation logging. Optional.
	Logger *slog.Logger
}

// NewEvaluator creates an evaluator over the given backend and ruleset.
func NewEvaluator(backend store.Backend, rules *Ruleset, cfg EvaluatorConfig) *Evaluator {
	policy := cfg.FailurePolicy
	if policy == "" {
		policy = FailOpen
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Evaluator{
		backend: backend,
		rules:   rules,
		policy:  policy,
		metrics: cfg.Metrics,
		logger:  logger.With("component", "ratelimit"),
		now:     time.Now,
	}
}

// Check evaluates the quota for (scope, identifier) and consumes one unit.
//
// The bucket counter is incremented unconditionally; the request is admitted
// only when the resulting count is within the limit, so the tipping request
// is itself rejected. A store failure never propagates: the decision falls
// back to the configured failure policy.
func (e *Evaluator) Check(ctx context.Context, scope, identifier string) (*Decision, error) {
	start := e.now()
	decision := e.check(ctx, scope, identifier, start)
	e.metrics.ObserveCheck(scope, decision.Allowed, e.now().Sub(start))
	return decision, nil
}

func (e *Evaluator) check(ctx context.Context, scope, identifier string, now time.Time) *Decision {
	rule, ok := e.rules.Resolve(scope)
	if !ok {
		// No rule and no default: the scope is unlimited.
		return &Decision{Allowed: true, Scope: scope, Identifier: identifier}
	}

	bucket := now.UnixNano() / rule.Window.Nanoseconds()
	bucketStart := time.Unix(0, bucket*rule.Window.Nanoseconds())
	reset := bucketStart.Add(rule.Window)

	key := counterKey(scope, identifier, bucket)

	count, err := e.backend.Increment(ctx, key, rule.Window)
	if err != nil {
		return e.degraded(scope, identifier, rule, reset, now, err)
	}

	decision := &Decision{
		Allowed:      count <= rule.Limit,
		Scope:        scope,
		Identifier:   identifier,
		Limit:        rule.Limit,
		CurrentCount: count,
		Remaining:    max(rule.Limit-count, 0),
		Reset:        reset,
	}

	if !decision.Allowed {
		decision.RetryAfter = reset.Sub(now)
		e.metrics.ObserveViolation(scope)

		if rule.Action == ActionLog {
			// Log-only rules record the violation and admit anyway.
			e.logger.Warn("rate limit exceeded, admitting per rule action",
				"scope", scope,
				"identifier", identifier,
				"count", count,
				"limit", rule.Limit,
			)
			decision.Allowed = true
		}
	}

	return decision
}

// degraded produces a failure-policy decision when the store is unreachable.
func (e *Evaluator) degraded(scope, identifier string, rule Rule, reset, now time.Time, cause error) *Decision {
	e.metrics.ObserveStoreError(scope)
	e.logger.Error("counter store unreachable, applying failure policy",
		"scope", scope,
		"policy", string(e.policy),
		"error", cause,
	)

	decision := &Decision{
		Allowed:       e.policy == FailOpen,
		Scope:         scope,
		Identifier:    identifier,
		Limit:         rule.Limit,
		Reset:         reset,
		StoreDegraded: true,
	}
	if !decision.Allowed {
		decision.RetryAfter = reset.Sub(now)
	}
	return decision
}

// counterKey builds the bucket counter key for a (scope, identifier, bucket).
func counterKey(scope, identifier string, bucket int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, identifier, bucket)
}
