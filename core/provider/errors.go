package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the platform does not know the device.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the platform rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited is returned when the platform throttles the caller. Transient.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable covers timeouts, network failures and 5xx answers. Transient.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrConfiguration is returned when an adapter cannot be built: unknown provider
	// type, missing credentials or connection parameters.
	ErrConfiguration = errors.New("configuration error")
)

// Error carries the provider context of a failed call.
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromHTTPStatus classifies a non-2xx platform answer.
func FromHTTPStatus(providerName, op string, code int, message string) error {
	var kind error
	switch {
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case code == http.StatusRequestTimeout || code >= 500:
		kind = ErrUnavailable
	default:
		kind = fmt.Errorf("unexpected status %d", code)
	}
	return &Error{Provider: providerName, Op: op, StatusCode: code, Message: message, Err: kind}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Configuration wraps ErrConfiguration with a reason.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
