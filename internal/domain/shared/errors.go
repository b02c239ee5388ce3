// Package shared holds the error kinds and domain events used across the
// ChampTrack domain packages. It has no external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound               = errors.New("entity not found")
	ErrInvalidID              = errors.New("invalid ID")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidState           = errors.New("invalid state")
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Backend failures.
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError carries the failing domain and operation along with a kind.
type DomainError struct {
	Domain  string // "document", "persistence", "outbox", "sync"
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func newError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError attaches domain context to err.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Document and persistence errors.
var (
	ErrDocumentNotFound      = newError("document", "Find", ErrNotFound, "document not found")
	ErrUnknownCollection     = newError("document", "Decode", ErrInvalidInput, "unknown collection")
	ErrMissingDocumentID     = newError("document", "Validate", ErrInvalidID, "document id is required")
	ErrMissingFamilyID       = newError("document", "Validate", ErrInvalidID, "family id is required")
	ErrPersistenceDown       = newError("persistence", "Write", ErrServiceUnavailable, "persistence backend unavailable")
	ErrSubscriptionClosed    = newError("persistence", "Subscribe", ErrInvalidState, "subscription closed")
	ErrOutboxClosed          = newError("outbox", "Enqueue", ErrInvalidState, "outbox is closed")
	ErrSnapshotFamilyMissing = newError("sync", "Apply", ErrInvalidInput, "snapshot has no family document")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports malformed input: bad ids or undecodable documents.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidInput)
}

// IsExternalService reports a failure of a backend outside the process.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable reports whether repeating the operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
