// Package ratelimit provides fixed-window rate limiting over a shared
// counter store.
//
// # Overview
//
// Requests are grouped into fixed time buckets keyed by floor(now / window).
// Every check increments the bucket counter unconditionally and admits the
// request only when the resulting count is within the scope's limit, so the
// request that tips the counter over the limit is itself rejected. Total
// increments slightly overcount, but admission is exact.
//
// Fixed windows accept boundary bursts of up to twice the limit across
// adjacent buckets. That is a deliberate tradeoff for a single round trip
// per check.
//
// # Rules
//
// A Ruleset maps scope names to quotas and is immutable after construction.
// Scopes without a rule fall back to the default rule, or are unlimited when
// no default is configured. Rules with ActionLog record violations without
// rejecting.
//
// # Failure policy
//
// When the counter store is unreachable the evaluator degrades per its
// configured FailurePolicy (FailOpen admits, FailClosed rejects) and never
// returns a store error to the request path.
//
// # Usage
//
//	rules, _ := ratelimit.NewRuleset([]ratelimit.Rule{
//	    {Scope: "api_key", Limit: 100, Window: time.Minute},
//	}, nil)
//	eval := ratelimit.NewEvaluator(backend, rules, ratelimit.EvaluatorConfig{})
//
//	decision, _ := eval.Check(ctx, "api_key", "key-123")
//	if !decision.Allowed {
//	    return decision.Err()
//	}
package ratelimit
