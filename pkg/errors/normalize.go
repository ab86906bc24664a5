package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/protocol"
)

// ExchangeError is the raw failure signal of a single exchange. It carries
// what the normalizer and the retry controller need: the HTTP status (0 when
// no response was received), the raw body, and the local cause if any.
type ExchangeError struct {
	Status int
	Body   []byte
	Cause  error
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	if e.Status == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("exchange failed: %v", e.Cause)
		}
		return "exchange failed"
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap returns the local cause
func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

// FromStatus normalizes a server response. A structured error body is used
// verbatim; otherwise the message and code are synthesized from the status.
func FromStatus(status int, body []byte) *APIError {
	status = clampStatus(status)

	if envelope, ok := FromBody(body); ok {
		message := envelope.Message
		if message == "" {
			message = fmt.Sprintf("HTTP %d", status)
		}
		code := envelope.Code
		if code == "" {
			code = CodeForStatus(status)
		}
		return &APIError{
			Message: message,
			Status:  status,
			Code:    code,
			Details: envelope.Details,
		}
	}

	return &APIError{
		Message: fmt.Sprintf("HTTP %d", status),
		Status:  status,
		Code:    CodeForStatus(status),
	}
}

// FromError converts any failure into exactly one *APIError.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	if apiErr, ok := AsAPIError(err); ok {
		return apiErr
	}

	var exchErr *ExchangeError
	if stderrors.As(err, &exchErr) && exchErr.Status != 0 {
		return FromStatus(exchErr.Status, exchErr.Body).WithCause(err)
	}

	if IsTimeout(err) {
		return &APIError{
			Message: "request timed out",
			Status:  408,
			Code:    CodeTimeout,
			cause:   err,
		}
	}

	cause := err
	if exchErr != nil && exchErr.Cause != nil {
		cause = exchErr.Cause
	}
	return &APIError{
		Message: cause.Error(),
		Status:  500,
		Code:    CodeNetworkError,
		cause:   err,
	}
}

// Normalize returns nil for nil and FromError otherwise. The result is
// always an *APIError when non-nil.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	return FromError(err)
}

// MaxRetriesExceeded reports an exhausted retry budget
func MaxRetriesExceeded(attempts int, last error) *APIError {
	apiErr := Newf(500, CodeMaxRetriesExceeded, "request failed after %d attempts", attempts)
	if last != nil {
		apiErr.cause = last
		apiErr.Details = map[string]interface{}{"last_error": last.Error()}
	}
	return apiErr
}

// IsTimeout reports whether err is a cancellation or timeout with no response.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// FromBody extracts the structured error envelope from a response body.
// ok is false for empty, non-JSON or envelope-less bodies.
func FromBody(body []byte) (*protocol.ErrorBody, bool) {
	if len(body) == 0 {
		return nil, false
	}

	var envelope protocol.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	if envelope.Error == nil || (envelope.Error.Code == "" && envelope.Error.Message == "") {
		return nil, false
	}
	return envelope.Error, true
}
