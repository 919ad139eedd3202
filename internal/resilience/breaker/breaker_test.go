package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// fakeClock lets tests move breaker time forward.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, recovery time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	b := New("price-sync:fetch", Config{FailureThreshold: threshold, RecoveryTimeout: recovery})
	b.now = clock.now
	return b, clock
}

func fail(ctx context.Context) error { return errBoom }

func ok(ctx context.Context) error { return nil }

func TestBreakerTripsAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: err = %v, want errBoom re-raised", i+1, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// Open breaker rejects without invoking the wrapped function.
	calls := 0
	err := b.Execute(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if calls != 0 {
		t.Errorf("wrapped fn invoked %d times while open", calls)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b, clock := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, fail)
	b.Execute(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// Before the recovery timeout, still rejected.
	clock.advance(30 * time.Second)
	if err := b.Execute(ctx, ok); !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen before recovery timeout", err)
	}

	// After the timeout the next call probes half-open; success closes and
	// resets the failure count.
	clock.advance(31 * time.Second)
	if err := b.Execute(ctx, ok); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
	if b.Failures() != 0 {
		t.Errorf("failures = %d, want 0 after successful probe", b.Failures())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, fail)
	b.Execute(ctx, fail)
	clock.advance(61 * time.Second)

	// Failed probe reopens and restarts the recovery timer from now.
	if err := b.Execute(ctx, fail); !errors.Is(err, errBoom) {
		t.Fatalf("probe err = %v, want errBoom", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", b.State())
	}

	// Timer restarted: 30s later still rejecting.
	clock.advance(30 * time.Second)
	if err := b.Execute(ctx, ok); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen with restarted timer", err)
	}
}

func TestBreakerCumulativeCounting(t *testing.T) {
	// Failures never decay in the closed state, even across successes.
	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, fail)
	b.Execute(ctx, ok)
	b.Execute(ctx, fail)
	b.Execute(ctx, ok)
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed", b.State())
	}
	b.Execute(ctx, fail)
	if b.State() != StateOpen {
		t.Errorf("state = %v, want open after third cumulative failure", b.State())
	}
}

func TestRegistryKeyedBreakers(t *testing.T) {
	r := NewRegistry()

	b1 := r.Get(Key("price-sync", "fetch"), DefaultConfig)
	b2 := r.Get(Key("price-sync", "fetch"), Config{FailureThreshold: 99})
	b3 := r.Get(Key("discovery", "fetch"), DefaultConfig)

	if b1 != b2 {
		t.Error("same key must return the same breaker")
	}
	if b1 == b3 {
		t.Error("different keys must return different breakers")
	}
	// The second Get must not reconfigure the existing breaker.
	if b2.cfg.FailureThreshold != DefaultConfig.FailureThreshold {
		t.Errorf("existing breaker reconfigured: %+v", b2.cfg)
	}

	snaps := r.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
	if snaps[0].Key != "discovery:fetch" || snaps[1].Key != "price-sync:fetch" {
		t.Errorf("snapshots not sorted by key: %+v", snaps)
	}
}

func TestBreakerIndependence(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	cfg := Config{FailureThreshold: 1, RecoveryTimeout: time.Hour}
	tripped := r.Get(Key("p", "broken"), cfg)
	healthy := r.Get(Key("p", "fine"), cfg)

	tripped.Execute(ctx, fail)
	if tripped.State() != StateOpen {
		t.Fatalf("state = %v, want open", tripped.State())
	}
	if err := healthy.Execute(ctx, ok); err != nil {
		t.Errorf("unrelated breaker affected: %v", err)
	}
}
