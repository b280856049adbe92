package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured reports an optional provider without credentials.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrProviderUnavailable matches every *ProviderError.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnknownEntity matches every *UnknownEntityError.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownCategory reports a category value the encoders never saw.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrReferenceDataUnavailable reports reference data that failed to load at startup.
	ErrReferenceDataUnavailable = errors.New("reference data not loaded")

	// ErrInvalidInput reports a malformed caller request.
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderError wraps a network, timeout, status, or decode failure from an
// external provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProviderUnavailable }

// UnknownEntityError reports an identifier missing from reference data.
type UnknownEntityError struct {
	Kind  string // "station", "service center"
	ID    string
	Valid []string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown %s %q, valid: %s", e.Kind, e.ID, strings.Join(e.Valid, ", "))
}

func (e *UnknownEntityError) Is(target error) bool { return target == ErrUnknownEntity }
