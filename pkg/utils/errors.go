package utils

import (
	"errors"
	"fmt"
)

// AppError carries a stable error code alongside a human-readable message.
// Codes are what callers branch on; messages are for logs and API responses.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e.Details != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = details[0]
	}

	return err
}

// WrapError creates an application error that wraps a cause, so errors.Is
// and errors.As still see the underlying error.
func WrapError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf extracts the application error code from anywhere in the chain,
// or "" when the error carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether the error chain carries the given code
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Common error codes
const (
	ErrCodeConnection    = "CONNECTION_ERROR"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeFetch         = "FETCH_ERROR"
	ErrCodeNotification  = "NOTIFICATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
)
