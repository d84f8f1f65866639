package models

import (
	"time"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
)

// Sanity bounds applied to every parsed reading. Anything outside these is
// treated as corrupt vendor data and discarded.
const (
	MinSanePrice = 0.000001
	MaxSanePrice = 1000000.0

	// MaxReadingAge is how stale a reading may be before it is rejected.
	MaxReadingAge = time.Hour
	// MaxReadingSkew is how far into the future a reading's timestamp may lie.
	MaxReadingSkew = 5 * time.Minute
)

// Reading is the canonical, normalized price snapshot produced after adapter
// parsing. Once validated it is treated as immutable; normalization only fills
// optional fields from a previous reading, never from thin air.
type Reading struct {
	Symbol    string
	Price     float64
	ChangeAbs float64
	ChangePct float64
	Timestamp time.Time
	Volume    *float64 // nil means the provider did not report it
	MarketCap *float64 // nil means the provider did not report it
}

// Validate checks the reading against the sanity bounds relative to now.
// A nil return means the reading may be cached, displayed and alerted on.
func (r Reading) Validate(now time.Time) error {
	if len(r.Symbol) < 2 {
		return NewValidationError("symbol", r.Symbol, "symbol too short")
	}
	if r.Price <= 0 {
		return NewValidationError("price", r.Price, "price must be positive")
	}
	if r.Price < MinSanePrice || r.Price > MaxSanePrice {
		return NewValidationError("price", r.Price, "price outside sane range")
	}
	if r.Timestamp.IsZero() {
		return NewValidationError("timestamp", r.Timestamp, "timestamp missing")
	}
	if r.Timestamp.Before(now.Add(-MaxReadingAge)) {
		return NewValidationError("timestamp", r.Timestamp, "reading too old")
	}
	if r.Timestamp.After(now.Add(MaxReadingSkew)) {
		return NewValidationError("timestamp", r.Timestamp, "reading from the future")
	}
	return nil
}

// HasVolume reports whether the reading carries a known volume.
func (r Reading) HasVolume() bool {
	return r.Volume != nil
}

// HasMarketCap reports whether the reading carries a known market cap.
func (r Reading) HasMarketCap() bool {
	return r.MarketCap != nil
}

// Float64Ptr is a convenience helper for building optional fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

// ValidationError reports a reading that failed sanity checks.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidationRejected
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}
