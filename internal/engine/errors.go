package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/store"
)

// ErrorCode categorizes engine errors for callers that branch on failure
// class rather than message text.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced rule, target, or instance is
	// missing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotActionable indicates a state-machine transition was
	// attempted from an incompatible current status. This is an expected
	// race (e.g. a double-tapped "done"), not a bug; UI layers should
	// render it as "already done", not as a failure.
	ErrCodeNotActionable ErrorCode = "NOT_ACTIONABLE"

	// ErrCodeValidation indicates a malformed rule payload reached the
	// engine.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeStorage indicates a store read or batch write failed. Every
	// engine operation is idempotent, so storage errors are retryable.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// EngineError is a coded error with the identifier of the entity involved.
type EngineError struct {
	Code    ErrorCode
	Message string
	ID      string // rule id, instance key, or target id, when known
	Err     error  // underlying cause, when wrapping
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries ErrCodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsNotActionable reports whether err is a state-machine miss.
func IsNotActionable(err error) bool {
	return hasCode(err, ErrCodeNotActionable)
}

// IsRetryable reports whether err is a storage failure the caller may
// safely retry (all engine writes are idempotent by instance key).
func IsRetryable(err error) bool {
	return hasCode(err, ErrCodeStorage)
}

func hasCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func notFoundError(id, message string, err error) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: message, ID: id, Err: err}
}

func notActionableError(key string) *EngineError {
	return &EngineError{Code: ErrCodeNotActionable, Message: "instance not found or not actionable", ID: key}
}

func storageError(message string, err error) *EngineError {
	return &EngineError{Code: ErrCodeStorage, Message: message, Err: err}
}

func validationError(id, message string) *EngineError {
	return &EngineError{Code: ErrCodeValidation, Message: message, ID: id}
}

// isStoreNotFound distinguishes a missing row from a genuine storage
// failure when classifying store errors.
func isStoreNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
