package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path does not resolve to a node.
	ErrNotFound = errors.New("content: not found")

	// ErrPathConflict is returned when a node already exists at a destination.
	ErrPathConflict = errors.New("content: path conflict")

	// ErrSessionClosed is returned when a closed or committed session is used.
	ErrSessionClosed = errors.New("content: session closed")
)

// PersistenceError represents a failed mutation (move, delete, create).
type PersistenceError struct {
	Op    string // Operation that failed ("move", "delete", "create")
	Path  string // Path the operation was applied to
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [op=%s, path=%s]: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, path string, cause error) *PersistenceError {
	return &PersistenceError{
		Op:    op,
		Path:  path,
		Cause: cause,
	}
}

// CommitError represents a failed session commit.
type CommitError struct {
	Backend string // Storage backend type ("memory", "sqlite")
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit error [backend=%s]: %v", e.Backend, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CommitError) Unwrap() error {
	return e.Cause
}

// NewCommitError creates a new CommitError.
func NewCommitError(backend string, cause error) *CommitError {
	return &CommitError{
		Backend: backend,
		Cause:   cause,
	}
}

// StorageError represents an error from the storage backend that is not tied
// to a single mutation (opening, schema setup, queries).
type StorageError struct {
	Backend   string // Storage backend type ("memory", "sqlite")
	Operation string // Operation that failed ("open", "session", "query", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPathConflict reports whether err is or wraps ErrPathConflict.
func IsPathConflict(err error) bool {
	return errors.Is(err, ErrPathConflict)
}
