// Package classify maps arbitrary error text onto the error taxonomy and
// decides retryability. Classification is substring-based on purpose: the
// errors come from third-party SDKs and database drivers whose text we do not
// control, so an ordered keyword table beats a type hierarchy here.
package classify

import (
	"strings"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

// rule is one entry of the ordered classification table.
type rule struct {
	patterns []string
	category domain.Category
}

// Rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{[]string{"econnreset", "econnrefused", "etimedout", "enotfound", "network", "timeout", "fetch failed", "socket hang up", "dns"}, domain.CategoryNetwork},
	{[]string{"database", "sql", "relation", "constraint", "duplicate key", "deadlock", "connection pool"}, domain.CategoryDatabase},
	{[]string{"unauthorized", "forbidden", "invalid token", "token expired", "authentication", "401", "403"}, domain.CategoryAuthentication},
	{[]string{"rate limit", "too many requests", "429", "quota exceeded", "throttl"}, domain.CategoryRateLimit},
	{[]string{"validation", "invalid", "required field", "missing field", "malformed", "bad request"}, domain.CategoryValidation},
	{[]string{"api", "external", "service unavailable", "bad gateway", "502", "503", "504"}, domain.CategoryExternalService},
}

// Classify maps an error message and optional code onto a taxonomy category.
// Unmatched errors default to business_logic.
func Classify(message, code string) domain.Category {
	haystack := strings.ToLower(message)
	if code != "" {
		haystack += " " + strings.ToLower(code)
	}

	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(haystack, p) {
				return r.category
			}
		}
	}
	return domain.CategoryBusinessLogic
}

// ClassifyError is a convenience wrapper for Go errors.
func ClassifyError(err error) domain.Category {
	if err == nil {
		return domain.CategoryBusinessLogic
	}
	return Classify(err.Error(), "")
}

// Verdict is the retryability decision for an error.
type Verdict int

const (
	// VerdictNonRetryable means the call must not be attempted again.
	VerdictNonRetryable Verdict = iota
	// VerdictRetryable means the error is transient and safe to retry.
	VerdictRetryable
)

// Retryable matches an error against explicit retryable and non-retryable
// pattern lists. The non-retryable list wins when both match, and an error
// matching neither list is non-retryable: unknown errors fail closed rather
// than being hammered against a dependency we do not understand.
func Retryable(message, code string, retryable, nonRetryable []string) Verdict {
	if matchesAny(message, code, nonRetryable) {
		return VerdictNonRetryable
	}
	if matchesAny(message, code, retryable) {
		return VerdictRetryable
	}
	return VerdictNonRetryable
}

// matchesAny reports whether any pattern is a case-insensitive substring of
// the message, or an exact match on the code.
func matchesAny(message, code string, patterns []string) bool {
	lowerMsg := strings.ToLower(message)
	for _, p := range patterns {
		lower := strings.ToLower(p)
		if strings.Contains(lowerMsg, lower) {
			return true
		}
		if code != "" && strings.EqualFold(code, p) {
			return true
		}
	}
	return false
}
