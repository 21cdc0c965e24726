// Package services provides the business-logic layer between the HTTP
// handlers and the persistence/orchestration packages.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrGroupNil            = errors.New("protection group cannot be nil")
	ErrPlanNil             = errors.New("recovery plan cannot be nil")
	ErrAccountNil          = errors.New("target account cannot be nil")
	ErrDuplicateWaveNumber = errors.New("duplicate wave number")
	ErrUnknownGroup        = errors.New("wave references an unknown protection group")

	// Business logic conflicts (409 Conflict).
	ErrExecutionNotPaused   = errors.New("execution is not paused")
	ErrExecutionTerminal    = errors.New("execution already reached a terminal status")
	ErrGroupInUse           = errors.New("protection group is referenced by a recovery plan")
	ErrPlanHasLiveExecution = errors.New("recovery plan has a live execution")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrGroupNil) ||
		errors.Is(err, ErrPlanNil) ||
		errors.Is(err, ErrAccountNil) ||
		errors.Is(err, ErrDuplicateWaveNumber) ||
		errors.Is(err, ErrUnknownGroup)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrExecutionNotPaused) ||
		errors.Is(err, ErrExecutionTerminal) ||
		errors.Is(err, ErrGroupInUse) ||
		errors.Is(err, ErrPlanHasLiveExecution)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
