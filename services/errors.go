package services

import (
	"errors"
	"fmt"
)

// Sentinel errors handlers map onto distinct HTTP statuses, never collapsed
// into a generic 500.
var (
	ErrProfileNotFound = errors.New("quest profile not found")
	ErrClaimInProgress = errors.New("claim already in progress for this identity")
	// Another instance advanced the checkpoint between read and write
	ErrCheckpointConflict = errors.New("claim checkpoint changed concurrently")
	ErrWalletMismatch     = errors.New("identity is already bound to a different wallet")
)

// ValidationError rejects a malformed request before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
