package types

import (
	"errors"
	"strings"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrDuplicateCode = errors.New("product code already exists")
	ErrNoValidRows   = errors.New("no valid rows to import")
)

// ValidationError lists human-readable reasons a request was rejected before
// any write.
type ValidationError struct {
	Messages []string
}

// NewValidationError returns nil when msgs is empty, so callers can return
// its result directly.
func NewValidationError(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalidData) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidData
}
