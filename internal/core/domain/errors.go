package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes follow the QV-{AREA}-{NNNN} format; the last four digits mirror the
// HTTP status family the request layer maps them to.
type DomainError struct {
	Code    string // Error code (e.g., "QV-VOTE-4040")
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

// Is implements errors.Is() support. Two domain errors match when their
// codes are equal, regardless of details or cause.
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
// Voting Errors (VOTE)
// ============================================================================

var (
	// ErrSessionNotFound indicates no voting session exists.
	ErrSessionNotFound = NewDomainError("QV-VOTE-4040", "no voting session found")

	// ErrSessionExists indicates a voting session is already present.
	ErrSessionExists = NewDomainError("QV-VOTE-4090", "voting session already exists")

	// ErrSessionNotActive indicates the session is not accepting votes.
	ErrSessionNotActive = NewDomainError("QV-VOTE-4091", "voting is not active")

	// ErrAlreadyVoted indicates the identity has already cast a vote.
	ErrAlreadyVoted = NewDomainError("QV-VOTE-4092", "identity already voted")

	// ErrInvalidCandidate indicates the candidate is not part of the session.
	ErrInvalidCandidate = NewDomainError("QV-VOTE-4002", "invalid candidate")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidInput indicates malformed or missing caller data.
	ErrInvalidInput = NewDomainError("QV-ARG-4001", "invalid input")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUnauthorized indicates the admin credential is missing or wrong.
	ErrUnauthorized = NewDomainError("QV-AUTH-4010", "unauthorized: invalid password")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("QV-SYS-5000", "internal server error")

	// ErrStoreUnavailable indicates the key-value store could not serve the request.
	ErrStoreUnavailable = NewDomainError("QV-SYS-5030", "store unavailable")

	// ErrBadRequest indicates a malformed request body.
	ErrBadRequest = NewDomainError("QV-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("QV-SYS-4290", "too many requests")
)
