// Package retry executes units of work under a retry policy with exponential
// backoff, optionally wrapped by a circuit breaker. Transient failures are
// retried locally; only the final outcome surfaces to the caller.
package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/metrics"
	"github.com/hawk7227/dropshipping-management-sub008/internal/obslog"
	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/breaker"
	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/classify"
)

// Outcome is the final result of one Do call. Callers inspect Success rather
// than treating the returned error as control flow.
type Outcome struct {
	Success       bool
	Err           error
	Attempts      int
	TotalDuration time.Duration
	CompletedAt   time.Time
}

// Options selects policy and breaker behavior for one execution.
type Options struct {
	// Policy defaults to APICallPolicy when zero.
	Policy Policy
	// Breaker, when non-nil, routes every attempt through the breaker for
	// this (pipeline, operation) key.
	Breaker *breaker.Config
	// ExecutionID correlates retry log entries with a pipeline execution.
	ExecutionID string
}

// Coder is implemented by errors that carry a short machine-readable code.
type Coder interface {
	Code() string
}

// Executor runs functions under retry policies.
type Executor struct {
	logger   *obslog.Logger
	registry *breaker.Registry

	// sleep and randFloat are injectable for tests.
	sleep     func(ctx context.Context, d time.Duration) error
	randMu    sync.Mutex
	randFloat func() float64
}

// NewExecutor creates an executor. The registry may be shared with other
// executors so breakers are keyed process-wide.
func NewExecutor(logger *obslog.Logger, registry *breaker.Registry) *Executor {
	if registry == nil {
		registry = breaker.NewRegistry()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Executor{
		logger:    logger,
		registry:  registry,
		sleep:     sleepCtx,
		randFloat: rng.Float64,
	}
}

// Registry exposes the breaker registry for dashboards.
func (e *Executor) Registry() *breaker.Registry {
	return e.registry
}

// Do runs fn under the retry policy. It returns an Outcome; the error inside
// is the last error observed, which may be breaker.ErrOpen.
func (e *Executor) Do(ctx context.Context, pipeline, operation string, fn func(ctx context.Context) error, opts Options) Outcome {
	policy := opts.Policy.normalize()
	start := time.Now()

	var br *breaker.Breaker
	if opts.Breaker != nil {
		br = e.registry.Get(breaker.Key(pipeline, operation), *opts.Breaker)
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		metrics.RetryAttemptsTotal.WithLabelValues(pipeline, operation).Inc()

		var err error
		if br != nil {
			err = br.Execute(ctx, fn)
		} else {
			err = fn(ctx)
		}

		if err == nil {
			metrics.RetryOutcomesTotal.WithLabelValues(pipeline, operation, "success").Inc()
			return Outcome{
				Success:       true,
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				CompletedAt:   time.Now(),
			}
		}
		lastErr = err

		verdict := classify.Retryable(err.Error(), errCode(err),
			policy.RetryablePatterns, policy.NonRetryablePatterns)
		if verdict == classify.VerdictNonRetryable {
			e.logFinal(ctx, pipeline, operation, opts.ExecutionID, attempt, err, false)
			metrics.RetryOutcomesTotal.WithLabelValues(pipeline, operation, "non_retryable").Inc()
			return Outcome{
				Success:       false,
				Err:           err,
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				CompletedAt:   time.Now(),
			}
		}

		if attempt == policy.MaxAttempts {
			break
		}

		delay := e.backoff(policy, attempt)
		if e.logger != nil {
			e.logger.LogRetryAttempt(ctx, pipeline, opts.ExecutionID, attempt, policy.MaxAttempts, err, delay)
		}
		if serr := e.sleep(ctx, delay); serr != nil {
			// Cancelled mid-backoff: no further attempts.
			metrics.RetryOutcomesTotal.WithLabelValues(pipeline, operation, "cancelled").Inc()
			return Outcome{
				Success:       false,
				Err:           serr,
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				CompletedAt:   time.Now(),
			}
		}
	}

	e.logFinal(ctx, pipeline, operation, opts.ExecutionID, policy.MaxAttempts, lastErr, true)
	metrics.RetryOutcomesTotal.WithLabelValues(pipeline, operation, "exhausted").Inc()
	return Outcome{
		Success:       false,
		Err:           lastErr,
		Attempts:      policy.MaxAttempts,
		TotalDuration: time.Since(start),
		CompletedAt:   time.Now(),
	}
}

// DoValue runs fn under the retry policy and carries its result out alongside
// the outcome.
func DoValue[T any](e *Executor, ctx context.Context, pipeline, operation string, fn func(ctx context.Context) (T, error), opts Options) (T, Outcome) {
	var result T
	outcome := e.Do(ctx, pipeline, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	}, opts)
	if !outcome.Success {
		var zero T
		return zero, outcome
	}
	return result, outcome
}

// backoff computes min(maxDelay, base*multiplier^(attempt-1)), with ±10%
// uniform jitter when enabled.
func (e *Executor) backoff(policy Policy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(policy.BackoffMultiplier, float64(attempt-1))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		e.randMu.Lock()
		f := e.randFloat()
		e.randMu.Unlock()
		delay += delay * 0.1 * (2*f - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (e *Executor) logFinal(ctx context.Context, pipeline, operation, executionID string, attempts int, err error, exhausted bool) {
	if e.logger == nil {
		return
	}
	message := "Operation failed with non-retryable error"
	if exhausted {
		message = "Operation failed after exhausting retries"
	}
	e.logger.Log(ctx, domain.LevelError, "", pipeline, message, obslog.Record{
		Details: map[string]any{
			"execution_id": executionID,
			"operation":    operation,
			"attempts":     attempts,
		},
		Err: err,
	})
}

func errCode(err error) string {
	var c Coder
	if ok := asCoder(err, &c); ok {
		return c.Code()
	}
	return ""
}

func asCoder(err error, target *Coder) bool {
	for err != nil {
		if c, ok := err.(Coder); ok {
			*target = c
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
