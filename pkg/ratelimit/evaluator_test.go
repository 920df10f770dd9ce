package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"floodgate-hq/floodgate/pkg/store"
)

// failingBackend simulates a store outage: every operation errors.
type failingBackend struct{}

func (failingBackend) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection refused")
}
func (failingBackend) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}
func (failingBackend) Ping(ctx context.Context) error { return errors.New("connection refused") }
func (failingBackend) Close() error                   { return nil }

func newTestEvaluator(t *testing.T, rules []Rule, defaultRule *Rule, policy FailurePolicy) (*Evaluator, *store.MemoryBackend) {
	t.Helper()

	backend := store.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })

	ruleset, err := NewRuleset(rules, defaultRule)
	if err != nil {
		t.Fatalf("NewRuleset failed: %v", err)
	}

	return NewEvaluator(backend, ruleset, EvaluatorConfig{FailurePolicy: policy}), backend
}

func TestEvaluator_AdmitWithinLimit(t *testing.T) {
	eval, _ := newTestEvaluator(t, []Rule{
		{Scope: "test_client", Limit: 2, Window: time.Second},
	}, nil, FailOpen)

	ctx := context.Background()

	// Pin time inside one bucket so the test cannot straddle a boundary
	eval.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 100, time.UTC) }

	for i := 1; i <= 2; i++ {
		decision, err := eval.Check(ctx, "test_client", "client-1")
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !decision.Allowed {
			t.Errorf("Expected call %d to be admitted", i)
		}
		if decision.CurrentCount != int64(i) {
			t.Errorf("Expected count %d, got %d", i, decision.CurrentCount)
		}
	}

	// The third call tips the counter past the limit and is rejected
	decision, err := eval.Check(ctx, "test_client", "client-1")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if decision.Allowed {
		t.Error("Expected third call to be rejected")
	}
	if decision.CurrentCount != 3 {
		t.Errorf("Expected count 3, got %d", decision.CurrentCount)
	}
	if decision.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", decision.Remaining)
	}
	if decision.RetryAfter <= 0 {
		t.Errorf("Expected positive RetryAfter, got %v", decision.RetryAfter)
	}
}

func TestEvaluator_DecisionErr(t *testing.T) {
	eval, _ := newTestEvaluator(t, []Rule{
		{Scope: "api_key", Limit: 1, Window: time.Minute},
	}, nil, FailOpen)

	ctx := context.Background()
	eval.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC) }

	decision, _ := eval.Check(ctx, "api_key", "key-1")
	if decision.Err() != nil {
		t.Errorf("Expected nil error for admitted request, got %v", decision.Err())
	}

	decision, _ = eval.Check(ctx, "api_key", "key-1")
	err := decision.Err()
	if err == nil {
		t.Fatal("Expected error for rejected request")
	}

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Expected error to wrap ErrRateLimitExceeded, got %v", err)
	}

	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Expected *LimitError, got %T", err)
	}
	if limitErr.Scope != "api_key" {
		t.Errorf("Expected scope api_key, got %q", limitErr.Scope)
	}
	if limitErr.RetryAfter <= 0 {
		t.Errorf("Expected positive RetryAfter, got %v", limitErr.RetryAfter)
	}
}

func TestEvaluator_IndependentIdentifiers(t *testing.T) {
	eval, _ := newTestEvaluator(t, []Rule{
		{Scope: "ip", Limit: 1, Window: time.Minute},
	}, nil, FailOpen)

	ctx := context.Background()
	eval.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC) }

	if d, _ := eval.Check(ctx, "ip", "10.0.0.1"); !d.Allowed {
		t.Error("Expected first identifier to be admitted")
	}
	if d, _ := eval.Check(ctx, "ip", "10.0.0.2"); !d.Allowed {
		t.Error("Expected second identifier to have its own counter")
	}
	if d, _ := eval.Check(ctx, "ip", "10.0.0.1"); d.Allowed {
		t.Error("Expected first identifier to be rejected on second call")
	}
}

func TestEvaluator_WindowRollover(t *testing.T) {
	eval, _ := newTestEvaluator(t, []Rule{
		{Scope: "api_key", Limit: 1, Window: time.Second},
	}, nil, FailOpen)

	ctx := context.Background()
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eval.now = func() time.Time { return current }

	if d, _ := eval.Check(ctx, "api_key", "key-1"); !d.Allowed {
		t.Error("Expected first call to be admitted")
	}
	if d, _ := eval.Check(ctx, "api_key", "key-1"); d.Allowed {
		t.Error("Expected second call in same bucket to be rejected")
	}

	// Next bucket: a fresh counter
	current = current.Add(time.Second)
	if d, _ := eval.Check(ctx, "api_key", "key-1"); !d.Allowed {
		t.Error("Expected call in next bucket to be admitted")
	}
}

func TestEvaluator_UnlimitedScope(t *testing.T) {
	eval, backend := newTestEvaluator(t, []Rule{
		{Scope: "api_key", Limit: 1, Window: time.Minute},
	}, nil, FailOpen)

	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision, err := eval.Check(ctx, "unknown_scope", "x")
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !decision.Allowed {
			t.Error("Expected unlimited scope to always admit")
		}
	}

	// No counters are consumed for unlimited scopes
	if backend.Size() != 0 {
		t.Errorf("Expected no stored counters, got %d", backend.Size())
	}
}

func TestEvaluator_DefaultRule(t *testing.T) {
	eval, _ := newTestEvaluator(t, nil, &Rule{Limit: 1, Window: time.Minute}, FailOpen)

	ctx := context.Background()
	eval.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC) }

	if d, _ := eval.Check(ctx, "anything", "x"); !d.Allowed {
		t.Error("Expected first call under default rule to be admitted")
	}
	d, _ := eval.Check(ctx, "anything", "x")
	if d.Allowed {
		t.Error("Expected second call under default rule to be rejected")
	}
	if d.Scope != "anything" {
		t.Errorf("Expected decision scope %q, got %q", "anything", d.Scope)
	}
}

func TestEvaluator_ActionLog(t *testing.T) {
	eval, _ := newTestEvaluator(t, []Rule{
		{Scope: "route", Limit: 1, Window: time.Minute, Action: ActionLog},
	}, nil, FailOpen)

	ctx := context.Background()
	eval.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC) }

	eval.Check(ctx, "route", "/v1/orders")

	// Over the limit, but log-only rules admit anyway
	decision, err := eval.Check(ctx, "route", "/v1/orders")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !decision.Allowed {
		t.Error("Expected log-only rule to admit over the limit")
	}
	if decision.CurrentCount != 2 {
		t.Errorf("Expected count 2, got %d", decision.CurrentCount)
	}
}

func TestEvaluator_FailOpen(t *testing.T) {
	ruleset, _ := NewRuleset([]Rule{
		{Scope: "api_key", Limit: 1, Window: time.Minute},
	}, nil)
	eval := NewEvaluator(failingBackend{}, ruleset, EvaluatorConfig{FailurePolicy: FailOpen})

	decision, err := eval.Check(context.Background(), "api_key", "key-1")
	if err != nil {
		t.Fatalf("Check must not surface store errors, got %v", err)
	}
	if !decision.Allowed {
		t.Error("Expected fail-open to admit during store outage")
	}
	if !decision.StoreDegraded {
		t.Error("Expected StoreDegraded to be set")
	}
}

func TestEvaluator_FailClosed(t *testing.T) {
	ruleset, _ := NewRuleset([]Rule{
		{Scope: "api_key", Limit: 1, Window: time.Minute},
	}, nil)
	eval := NewEvaluator(failingBackend{}, ruleset, EvaluatorConfig{FailurePolicy: FailClosed})

	decision, err := eval.Check(context.Background(), "api_key", "key-1")
	if err != nil {
		t.Fatalf("Check must not surface store errors, got %v", err)
	}
	if decision.Allowed {
		t.Error("Expected fail-closed to reject during store outage")
	}
	if !decision.StoreDegraded {
		t.Error("Expected StoreDegraded to be set")
	}
	if decision.RetryAfter <= 0 {
		t.Errorf("Expected positive RetryAfter, got %v", decision.RetryAfter)
	}
}

func TestEvaluator_BucketKey(t *testing.T) {
	key := counterKey("api_key", "key-1", 42)
	if key != "ratelimit:api_key:key-1:42" {
		t.Errorf("Unexpected counter key: %q", key)
	}
}

func BenchmarkEvaluator_Check(b *testing.B) {
	backend := store.NewMemoryBackend()
	defer backend.Close()

	ruleset, _ := NewRuleset([]Rule{
		{Scope: "api_key", Limit: 1 << 60, Window: time.Minute},
	}, nil)
	eval := NewEvaluator(backend, ruleset, EvaluatorConfig{})

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eval.Check(ctx, "api_key", "bench")
	}
}
