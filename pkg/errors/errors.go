package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an upstream or request error with type information.
// Message is safe to show to API clients; Code is the upstream HTTP status
// when there was one.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause
func New(errType ErrorType, code int, message string) *Error {
	return &Error{Type: errType, Message: message, Code: code}
}

// Wrap creates an Error that keeps err as its cause
func Wrap(errType ErrorType, code int, message string, err error) *Error {
	return &Error{Type: errType, Message: message, Code: code, Err: err}
}

// Validation creates an error for bad client input
func Validation(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Code: http.StatusBadRequest}
}

// IsValidation reports whether err is a client input error
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeValidation
}

// PublicMessage returns the message that is shown to API clients.
// Typed errors expose their Message, anything else its Error() text.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Internal server error"
}

// HTTPStatus maps an error to the status code the edge handler responds with.
// Only validation errors are client errors; every other failure is a 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}
