package protocol

// ErrorEnvelope is the structured body of a failed response
type ErrorEnvelope struct {
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries the server-reported failure
type ErrorBody struct {
	// Code is the machine-readable error code, e.g. "NOT_FOUND".
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Details is an opaque, endpoint-specific payload.
	Details interface{} `json:"details,omitempty"`
}
