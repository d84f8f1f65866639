// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrRateLimited           = errors.New("rate limited")
	ErrBadStatus             = errors.New("bad response status")
	ErrMalformedPayload      = errors.New("malformed payload")
	ErrUnsupportedAsset      = errors.New("asset not supported by provider")
	ErrValidationRejected    = errors.New("reading failed validation")
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	ErrNoProvidersAvailable  = errors.New("no providers available")
	ErrDispatchExhausted     = errors.New("all notification backends failed")
	ErrConnectionFailed      = errors.New("connection failed")
	ErrTimeout               = errors.New("operation timed out")
	ErrConfigInvalid         = errors.New("invalid configuration")
)

// RateLimitError carries the vendor's retry-after hint alongside the
// ErrRateLimited sentinel.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s, retry after %s", e.Provider, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NewRateLimitError creates a new RateLimitError. A zero retryAfter means the
// vendor gave no hint; callers apply their own default.
func NewRateLimitError(provider string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter}
}

// StatusError reports a non-2xx HTTP response from a vendor API.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// NewStatusError creates a new StatusError.
func NewStatusError(provider string, code int) *StatusError {
	return &StatusError{Provider: provider, Code: code}
}

// PayloadError reports a vendor payload that could not be parsed into a
// canonical reading.
type PayloadError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s payload: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s payload: %s", e.Provider, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// NewPayloadError creates a new PayloadError.
func NewPayloadError(provider, reason string, err error) *PayloadError {
	return &PayloadError{Provider: provider, Reason: reason, Err: err}
}

// UnsupportedAssetError reports a provider that cannot serve the tracked
// asset. This is a permanent mismatch, not a transient fault.
type UnsupportedAssetError struct {
	Provider string
	AssetID  string
}

func (e *UnsupportedAssetError) Error() string {
	return fmt.Sprintf("%s does not support asset %q", e.Provider, e.AssetID)
}

func (e *UnsupportedAssetError) Unwrap() error {
	return ErrUnsupportedAsset
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
