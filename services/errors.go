package services

import (
	"errors"
	"fmt"
	"log"
)

// ErrNotFound is returned by repositories when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ValidationError rejects an illegal request (bad input or an illegal state
// transition) before any write happens. Safe to retry with corrected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// LockTimeoutError means the system lock could not be acquired in time.
// Surfaced to the user as "system busy" and safe to retry.
type LockTimeoutError struct {
	Operation string
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("system busy: could not acquire lock for %s, please try again", e.Operation)
}

func IsLockTimeout(err error) bool {
	var lte *LockTimeoutError
	return errors.As(err, &lte)
}

// IntegrityError means a post-write verification read did not match the state
// we just wrote. The system is supposed to be serialized, so this is a
// correctness violation: non-retryable, needs operator attention.
type IntegrityError struct {
	Collection string
	DocID      string
	Field      string
	Expected   any
	Actual     any
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s/%s: %s expected %v, stored %v",
		e.Collection, e.DocID, e.Field, e.Expected, e.Actual)
}

func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// logNonCritical records an audit-comment or notification failure. These never
// propagate and never roll back the state transition they follow.
func logNonCritical(operation string, err error) {
	if err == nil {
		return
	}
	log.Printf("non-critical side effect failed during %s: %v", operation, err)
}
