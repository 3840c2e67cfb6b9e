package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form RC-<AREA>-<NNNN>. The last four digits carry the HTTP
// status class the transports map the error to.
type DomainError struct {
	Code    string // Error code (e.g., "RC-EMP-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Attendance Errors (ATT)
// ============================================================================

var (
	// ErrAttendanceNotFound indicates no attendance record has the requested id.
	ErrAttendanceNotFound = NewDomainError("RC-ATT-4040", "attendance not found")
)

// ============================================================================
// Employee Errors (EMP)
// ============================================================================

var (
	// ErrEmployeeNotFound indicates no employee record has the requested id.
	ErrEmployeeNotFound = NewDomainError("RC-EMP-4040", "employee not found")

	// ErrEmployeeAlreadyExists is reserved for a create-only add. Adding an
	// employee currently overwrites, so the services never return it.
	ErrEmployeeAlreadyExists = NewDomainError("RC-EMP-4090", "employee already exists")

	// ErrEmployeeValidation indicates employee fields failed validation.
	ErrEmployeeValidation = NewDomainError("RC-EMP-4001", "employee validation failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("RC-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("RC-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("RC-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("RC-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("RC-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("RC-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("RC-ARG-1002", "missing required argument")
)

// ============================================================================
// Admin Errors (ADMIN)
// ============================================================================

var (
	// ErrBackupNotFound indicates the requested backup does not exist.
	ErrBackupNotFound = NewDomainError("RC-ADMIN-4041", "backup not found")

	// ErrBackupUnavailable indicates backups are not possible in the current
	// storage mode.
	ErrBackupUnavailable = NewDomainError("RC-ADMIN-4091", "backups unavailable")
)
