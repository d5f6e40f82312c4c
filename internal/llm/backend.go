// Package llm drives structured extraction through language-model
// backends with sticky failover from a managed primary to a local
// secondary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/geojobs/internal/utils"
)

// Backend is a single model endpoint able to answer a chat-style request
// with a JSON-only response.
type Backend interface {
	// Chat sends the system and user instructions and returns the raw
	// response content.
	Chat(ctx context.Context, system, user string) (string, error)
	// Probe checks reachability without side effects on extraction state.
	Probe(ctx context.Context) error
	// String identifies the backend for logs.
	String() string
}

// StatusError is a non-success HTTP response from a model backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, utils.TruncateForLog(e.Body, 200))
}

// quota/access trip conditions: these statuses and body substrings mean
// the paid backend is exhausted or forbidden, not transiently failing.
var (
	quotaStatuses = map[int]bool{401: true, 402: true, 403: true, 429: true}

	quotaPatterns = []string{
		"limit", "quota", "credit", "payment", "billing", "insufficient",
		"not permitted", "not allowed", "subscription", "rate limit",
	}
)

// IsQuota reports whether the error looks like a quota, billing or access
// failure rather than a transient one.
func IsQuota(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		if quotaStatuses[status.Code] {
			return true
		}
		return containsQuotaPattern(status.Body)
	}
	return containsQuotaPattern(err.Error())
}

func containsQuotaPattern(s string) bool {
	s = strings.ToLower(s)
	for _, p := range quotaPatterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
