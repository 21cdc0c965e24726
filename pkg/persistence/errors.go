// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrGroupNotFound indicates a protection group was not found.
	ErrGroupNotFound = errors.New("protection group not found")

	// ErrPlanNotFound indicates a recovery plan was not found.
	ErrPlanNotFound = errors.New("recovery plan not found")

	// ErrAccountNotFound indicates a target account was not found.
	ErrAccountNotFound = errors.New("target account not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")
)

// StoreError wraps storage errors with operation context.
type StoreError struct {
	Op   string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	Kind string // Entity kind ("group", "plan", "account", "execution")
	ID   string // Entity ID if applicable
	Err  error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given context.
func NewStoreError(op, kind, id string, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, ID: id, Err: err}
}

// IsGroupNotFound checks if the error indicates a missing protection group.
func IsGroupNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound)
}

// IsPlanNotFound checks if the error indicates a missing recovery plan.
func IsPlanNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound)
}

// IsAccountNotFound checks if the error indicates a missing target account.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsExecutionNotFound checks if the error indicates a missing execution.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsNotFound checks if the error indicates any missing entity.
func IsNotFound(err error) bool {
	return IsGroupNotFound(err) || IsPlanNotFound(err) ||
		IsAccountNotFound(err) || IsExecutionNotFound(err)
}
