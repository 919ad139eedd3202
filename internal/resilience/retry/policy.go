package retry

import "time"

// Policy configures the retry loop for one execution. It is a value object:
// executions never mutate it.
type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool

	// RetryablePatterns and NonRetryablePatterns are matched against the
	// error message (substring) and code (exact). Non-retryable wins; an
	// error matching neither list is non-retryable.
	RetryablePatterns    []string
	NonRetryablePatterns []string
}

// DefaultRetryable are the transient failure signatures shared by the presets.
var DefaultRetryable = []string{
	"ECONNRESET", "ECONNREFUSED", "ETIMEDOUT", "ENOTFOUND",
	"timeout", "connection reset", "socket hang up", "dns",
	"rate limit", "too many requests", "429",
	"500", "502", "503", "504", "service unavailable", "internal server error",
}

// DefaultNonRetryable are failure signatures that must never be retried.
var DefaultNonRetryable = []string{
	"validation", "invalid", "unauthorized", "forbidden",
	"not found", "404", "bad request", "400",
}

// APICallPolicy is the preset for third-party API calls.
func APICallPolicy() Policy {
	return Policy{
		MaxAttempts:          3,
		BaseDelay:            1 * time.Second,
		MaxDelay:             10 * time.Second,
		BackoffMultiplier:    2.0,
		Jitter:               true,
		RetryablePatterns:    DefaultRetryable,
		NonRetryablePatterns: DefaultNonRetryable,
	}
}

// DatabasePolicy is the preset for database operations.
func DatabasePolicy() Policy {
	return Policy{
		MaxAttempts:       5,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 1.5,
		Jitter:            false,
		RetryablePatterns: []string{
			"connection", "deadlock", "timeout", "too many connections",
			"connection pool",
		},
		NonRetryablePatterns: []string{
			"constraint", "duplicate key", "syntax", "relation", "column",
		},
	}
}

// ExternalServicePolicy is the preset for slower external services with a
// narrower retryable set.
func ExternalServicePolicy() Policy {
	return Policy{
		MaxAttempts:       4,
		BaseDelay:         2 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		RetryablePatterns: []string{
			"ETIMEDOUT", "timeout", "503", "502", "service unavailable",
			"rate limit", "429",
		},
		NonRetryablePatterns: DefaultNonRetryable,
	}
}

// normalize fills unset fields with API-call defaults.
func (p Policy) normalize() Policy {
	def := APICallPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	if p.RetryablePatterns == nil {
		p.RetryablePatterns = def.RetryablePatterns
	}
	if p.NonRetryablePatterns == nil {
		p.NonRetryablePatterns = def.NonRetryablePatterns
	}
	return p
}
