// Package errors provides the canonical error shape for the tracker SDK.
// Every failure surfaced by the transport, whether it came from the server,
// the network, or a local timeout, is normalized into a single *APIError
// that carries a machine-readable code and an HTTP-range status.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryAuth       Category = "auth"
	CategoryNotFound   Category = "not_found"
	CategoryConflict   Category = "conflict"
	CategoryRateLimit  Category = "rate_limit"
	CategoryServer     Category = "server"
	CategoryTransport  Category = "transport"
	CategoryTimeout    Category = "timeout"
	CategoryInternal   Category = "internal"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// APIError is the normalized error returned by every transport operation.
//
// Status is always a well-formed HTTP status (100-599). Timeouts use 408 and
// unclassified local failures use 500.
type APIError struct {
	// Message is a human-readable description, taken verbatim from the
	// server when it sent a structured error body.
	Message string `json:"message"`

	// Status is the HTTP status the failure maps to.
	Status int `json:"status"`

	// Code is the stable machine-readable code callers branch on.
	Code string `json:"code"`

	// Details is the opaque payload the server attached, if any.
	Details interface{} `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("tracker: %s (%d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("tracker: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *APIError with the same code. This lets
// callers compare against the sentinel values with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Category returns the error category derived from the code registry
func (e *APIError) Category() Category {
	return GetCodeCategory(e.Code)
}

// Severity returns the error severity derived from the code registry
func (e *APIError) Severity() Severity {
	return GetCodeSeverity(e.Code)
}

// Retryable reports whether the code belongs to the transient class.
func (e *APIError) Retryable() bool {
	return IsRetryableCode(e.Code)
}

// WithDetails returns a copy of the error carrying the given payload
func (e *APIError) WithDetails(details interface{}) *APIError {
	newErr := *e
	newErr.Details = details
	return &newErr
}

// WithCause returns a copy of the error wrapping cause
func (e *APIError) WithCause(cause error) *APIError {
	newErr := *e
	newErr.cause = cause
	return &newErr
}

// ToJSON returns the error as a JSON-serializable map
func (e *APIError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.Code,
		"message":  e.Message,
		"status":   e.Status,
		"category": string(e.Category()),
	}

	if e.Details != nil {
		result["details"] = e.Details
	}

	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler
func (e *APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// New creates an *APIError. Out-of-range statuses are clamped to 500.
func New(status int, code, message string) *APIError {
	return &APIError{
		Message: message,
		Status:  clampStatus(status),
		Code:    code,
	}
}

// Newf creates an *APIError with a formatted message
func Newf(status int, code, format string, args ...interface{}) *APIError {
	return New(status, code, fmt.Sprintf(format, args...))
}

// Wrap creates an *APIError around an existing error
func Wrap(err error, status int, code, message string) *APIError {
	return New(status, code, message).WithCause(err)
}

// AsAPIError extracts an *APIError from err's chain
func AsAPIError(err error) (*APIError, bool) {
	if err == nil {
		return nil, false
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsCode checks if an error carries a specific code
func IsCode(err error, code string) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code == code
	}
	return false
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Category() == category
	}
	return false
}

// StatusOf returns the normalized status of err, or 0 for nil.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	return FromError(err).Status
}

func clampStatus(status int) int {
	if status < 100 || status > 599 {
		return 500
	}
	return status
}
