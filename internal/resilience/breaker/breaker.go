// Package breaker implements a per-operation circuit breaker. Each breaker is
// an independent state machine guarding one (pipeline, operation) key; the
// Registry creates them lazily and keeps them for the process lifetime.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/metrics"
)

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker state machine state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config holds breaker tuning for one operation key.
type Config struct {
	// FailureThreshold is the cumulative failure count that trips the breaker.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before allowing a
	// half-open probe.
	RecoveryTimeout time.Duration
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	FailureThreshold: 5,
	RecoveryTimeout:  60 * time.Second,
}

// Breaker is a single circuit breaker. Safe for concurrent use.
//
// Failure counting is cumulative: the count only resets via a successful
// half-open probe, never by time decay.
type Breaker struct {
	key string
	cfg Config

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	// now is injectable for tests.
	now func() time.Time
}

// New creates a breaker in the closed state.
func New(key string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultConfig.RecoveryTimeout
	}
	return &Breaker{key: key, cfg: cfg, state: StateClosed, now: time.Now}
}

// Execute runs fn through the breaker. While open it rejects immediately with
// ErrOpen without invoking fn; once the recovery timeout has elapsed the next
// call probes in half-open. Failures are re-raised to the caller unchanged.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.lastFailure) > b.cfg.RecoveryTimeout {
		b.setState(StateHalfOpen)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOpen, b.key)
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == StateHalfOpen {
			b.failures = 0
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if b.failures >= b.cfg.FailureThreshold {
		if b.state != StateOpen {
			metrics.BreakerTripsTotal.WithLabelValues(b.key).Inc()
		}
		b.setState(StateOpen)
	} else if b.state == StateHalfOpen {
		// A failed probe reopens immediately and restarts the recovery timer.
		b.setState(StateOpen)
	}
}

// setState transitions the state machine; caller holds the lock.
func (b *Breaker) setState(s State) {
	b.state = s
	metrics.BreakerState.WithLabelValues(b.key).Set(float64(s))
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the cumulative failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Snapshot is a point-in-time view of one breaker, for dashboards.
type Snapshot struct {
	Key         string    `json:"key"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
}

// Snapshot returns the breaker's current state and counters.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Key:         b.key,
		State:       b.state.String(),
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}
