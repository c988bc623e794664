package core

import (
	"errors"
	"fmt"
	"strings"
)

// StatusError carries the HTTP status of a failed collaborator call.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Message)
}

var rateLimitPhrases = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"overloaded",
	"quota exceeded",
	"resource exhausted",
	"429",
}

// IsRateLimit reports whether err looks like an upstream rate-limit failure:
// an explicit 429, or a 5xx whose message is rate-limit shaped. Only these
// failures are worth retrying with backoff.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == 429 {
			return true
		}
		if se.Code < 500 || se.Code > 599 {
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
