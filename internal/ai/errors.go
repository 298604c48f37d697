package ai

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError reports a failed generation or embedding call: network, auth,
// quota, timeout or malformed upstream response.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was caused by a deadline.
func (e *ProviderError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ValidationError reports input or configuration rejected before any external call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewProviderError wraps err unless it already is a ProviderError or ValidationError.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return err
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// MissingCredentials builds the ValidationError returned when a provider has no key.
func MissingCredentials(provider, env string) *ValidationError {
	return &ValidationError{
		Field:   "provider",
		Message: fmt.Sprintf("%s api key is not configured (set %s)", provider, env),
	}
}

// IsProviderError reports whether err carries a ProviderError.
func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
