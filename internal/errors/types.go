package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Precondition failures, user-correctable
	ErrCodeNoEmployeeSelected ErrorCode = "NO_EMPLOYEE_SELECTED"
	ErrCodeAlreadyClockedIn   ErrorCode = "ALREADY_CLOCKED_IN"
	ErrCodePendingSave        ErrorCode = "PENDING_SAVE"
	ErrCodeNotClockedIn       ErrorCode = "NOT_CLOCKED_IN"
	ErrCodeAlreadyClockedOut  ErrorCode = "ALREADY_CLOCKED_OUT"
	ErrCodeNotClockedOut      ErrorCode = "NOT_CLOCKED_OUT"

	// Infrastructure failures
	ErrCodeStoreFailure       ErrorCode = "STORE_FAILURE"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeSessionIDExhausted ErrorCode = "SESSION_ID_EXHAUSTED"
	ErrCodeRelayFailed        ErrorCode = "RELAY_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"

	// Configuration failures
	ErrCodeConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrCodeRelayNotConfigured ErrorCode = "RELAY_NOT_CONFIGURED"
)

// Error is a structured error carrying a code and an optional cause
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsPrecondition reports whether the error is an expected, user-correctable failure
func (e *Error) IsPrecondition() bool {
	switch e.Code {
	case ErrCodeNoEmployeeSelected, ErrCodeAlreadyClockedIn, ErrCodePendingSave,
		ErrCodeNotClockedIn, ErrCodeAlreadyClockedOut, ErrCodeNotClockedOut:
		return true
	}
	return false
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific code anywhere in its chain
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Message returns the user-facing message of a coded error, or err.Error() otherwise
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
