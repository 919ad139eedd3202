package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/breaker"
)

// recordingSleeper captures backoff delays instead of sleeping.
func recordingSleeper(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func newTestExecutor(delays *[]time.Duration) *Executor {
	e := NewExecutor(nil, breaker.NewRegistry())
	if delays != nil {
		e.sleep = recordingSleeper(delays)
	}
	return e
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	calls := 0
	outcome := e.Do(context.Background(), "price-sync", "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("ETIMEDOUT while fetching")
		}
		return nil
	}, Options{Policy: Policy{
		MaxAttempts:       3,
		BaseDelay:         1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}})

	if !outcome.Success {
		t.Fatalf("expected success, got error %v", outcome.Err)
	}
	if outcome.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", outcome.Attempts)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoMaxDelayCap(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		return errors.New("timeout")
	}, Options{Policy: Policy{
		MaxAttempts:       4,
		BaseDelay:         1 * time.Second,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 10.0,
		Jitter:            false,
	}})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Attempts != 4 {
		t.Errorf("attempts = %d, want 4", outcome.Attempts)
	}
	// 1s, then capped at 2s for every later attempt.
	want := []time.Duration{1 * time.Second, 2 * time.Second, 2 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	calls := 0
	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		calls++
		return errors.New("validation failed: sku required")
	}, Options{Policy: APICallPolicy()})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 || outcome.Attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1/1", calls, outcome.Attempts)
	}
	if len(delays) != 0 {
		t.Errorf("expected zero delay, got %v", delays)
	}
}

func TestDoUnknownErrorFailsClosed(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		return errors.New("some error nobody has ever categorized")
	}, Options{Policy: APICallPolicy()})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (fail-closed)", outcome.Attempts)
	}
}

func TestDoContextCancelledMidBackoff(t *testing.T) {
	e := NewExecutor(nil, breaker.NewRegistry())
	e.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	calls := 0
	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	}, Options{Policy: APICallPolicy()})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no attempt after cancellation)", calls)
	}
	if !errors.Is(outcome.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", outcome.Err)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	e := NewExecutor(nil, breaker.NewRegistry())

	policy := Policy{
		BaseDelay:         1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}

	for i := 0; i < 200; i++ {
		d := e.backoff(policy, 1)
		if d < 900*time.Millisecond || d > 1100*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±10%% of 1s", d)
		}
	}
}

func TestDoThroughBreakerOpenRejectsWithoutCalling(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	cfg := &breaker.Config{FailureThreshold: 2, RecoveryTimeout: time.Hour}
	policy := Policy{
		MaxAttempts: 1,
		// Make the failing error retryable-classified so the breaker, not
		// the retry policy, is what stops us.
		RetryablePatterns:    []string{"timeout"},
		NonRetryablePatterns: []string{},
	}

	// Trip the breaker.
	for i := 0; i < 2; i++ {
		e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
			return errors.New("timeout")
		}, Options{Policy: policy, Breaker: cfg})
	}

	calls := 0
	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		calls++
		return nil
	}, Options{Policy: policy, Breaker: cfg})

	if calls != 0 {
		t.Errorf("wrapped fn invoked %d times through an open breaker", calls)
	}
	if outcome.Success {
		t.Fatal("expected rejection")
	}
	if !errors.Is(outcome.Err, breaker.ErrOpen) {
		t.Errorf("err = %v, want breaker.ErrOpen", outcome.Err)
	}
}

type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

func TestDoMatchesErrorCode(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	calls := 0
	outcome := e.Do(context.Background(), "p", "op", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &codedError{msg: "opaque upstream failure", code: "ECONNRESET"}
		}
		return nil
	}, Options{Policy: APICallPolicy()})

	if !outcome.Success {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if outcome.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcome.Attempts)
	}
}

func TestDoValue(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	calls := 0
	v, outcome := DoValue(e, context.Background(), "p", "op", func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("503 service unavailable")
		}
		return 42, nil
	}, Options{Policy: APICallPolicy()})

	if !outcome.Success || v != 42 {
		t.Fatalf("DoValue = %d (%+v), want 42/success", v, outcome)
	}

	v, outcome = DoValue(e, context.Background(), "p", "op2", func(ctx context.Context) (int, error) {
		return 7, errors.New("validation error")
	}, Options{Policy: APICallPolicy()})
	if outcome.Success || v != 0 {
		t.Fatalf("failed DoValue = %d, want zero value", v)
	}
}

func TestPresets(t *testing.T) {
	api := APICallPolicy()
	if api.MaxAttempts != 3 || api.BaseDelay != time.Second || api.MaxDelay != 10*time.Second || !api.Jitter {
		t.Errorf("unexpected API preset: %+v", api)
	}
	db := DatabasePolicy()
	if db.MaxAttempts != 5 || db.BaseDelay != 500*time.Millisecond || db.BackoffMultiplier != 1.5 || db.Jitter {
		t.Errorf("unexpected DB preset: %+v", db)
	}
	ext := ExternalServicePolicy()
	if ext.MaxAttempts != 4 || ext.BaseDelay != 2*time.Second || ext.MaxDelay != 30*time.Second {
		t.Errorf("unexpected external preset: %+v", ext)
	}
}
