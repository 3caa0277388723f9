package utils

import (
	"errors"
	"fmt"
	"runtime"
)

// AppError represents an application error with context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates a new application error
func NewAppError(code, message string, details ...string) *AppError {
	_, file, line, _ := runtime.Caller(1)

	err := &AppError{
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
	}

	if len(details) > 0 {
		err.Details = details[0]
	}

	return err
}

// ErrorCode extracts the code from an error. Errors that are not AppErrors
// are classified as remote failures.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeRemoteFailure
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Common error codes
const (
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeWrongNetwork        = "WRONG_NETWORK"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeUserRejected        = "USER_REJECTED"
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeRemoteFailure       = "REMOTE_FAILURE"
	ErrCodeConnection          = "CONNECTION_ERROR"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeStorage             = "STORAGE_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
)
