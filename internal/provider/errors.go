package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider error for the planner and retry controller.
type Kind int

const (
	// KindUnknown errors are propagated as-is: retrying them risks
	// masking bugs.
	KindUnknown Kind = iota
	// KindNotFound is an expected terminal state driving the CREATE
	// branch. Never retried, never surfaced as a failure.
	KindNotFound
	// KindThrottled covers rate limits and other transient conditions.
	// Always retried.
	KindThrottled
)

// Error wraps a provider call failure with its classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return "provider error"
	case e.Err == nil:
		return e.Op
	case e.Op == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound returns the distinguishable "resource does not exist" result.
func NotFound(op string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.New("resource not found")}
}

// Throttled wraps a transient or rate-limit failure.
func Throttled(op string, err error) error {
	return &Error{Kind: KindThrottled, Op: op, Err: err}
}

// Failure wraps a non-retryable provider failure.
func Failure(op string, err error) error {
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

// IsNotFound reports whether err is the not-found terminal state.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindNotFound
}

// transientPatterns covers providers that return untyped throttling and
// network errors.
var transientPatterns = []string{
	"throttl",
	"rate exceed",
	"too many requests",
	"request limit",
	"service unavailable",
	"connection reset",
	"connection refused",
	"timeout",
	"i/o timeout",
	"temporary failure",
}

// IsTransient reports whether err should be retried. Typed classification
// wins; message matching is the fallback for raw SDK errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindThrottled
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
