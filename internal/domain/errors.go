package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound covers both a missing conversation and one owned by someone else.
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream marks a failed LLM gateway call
	ErrUpstream = errors.New("upstream error")
	// ErrStore marks a persistence failure that is not a lookup miss
	ErrStore = errors.New("store error")
)

// UpstreamError describes a failed call to the LLM gateway.
// StatusCode is the upstream HTTP status, or 0 when no response was received.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against ErrUpstream
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// NewValidationError wraps a validation failure so errors.Is(err, ErrValidation) holds.
func NewValidationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// WrapStoreError tags a persistence failure with ErrStore.
// Lookup misses and rejected input keep their identity and are returned unchanged.
func WrapStoreError(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
