package errors

import (
	"fmt"
	"strings"
)

// FieldErrorData describes one rejected configuration field or argument
type FieldErrorData struct {
	Field      string      `json:"field"`
	Value      interface{} `json:"value,omitempty"`
	Constraint string      `json:"constraint,omitempty"`
}

// InvalidConfig reports a configuration value rejected at construction
func InvalidConfig(field string, value interface{}, constraint string) *APIError {
	return Newf(400, CodeInvalidConfig, "invalid config field '%s': %s", field, constraint).
		WithDetails(&FieldErrorData{
			Field:      field,
			Value:      value,
			Constraint: constraint,
		})
}

// MissingParameter reports a required call argument that was empty. It is
// raised locally, before any request is sent.
func MissingParameter(param string) *APIError {
	return Newf(400, CodeBadRequest, "missing required parameter: %s", param).
		WithDetails(&FieldErrorData{
			Field:      param,
			Constraint: "required",
		})
}

// CombineConfigErrors merges several config errors into one. It returns nil
// for an empty slice and the only element for a single-element slice.
func CombineConfigErrors(errs []*APIError) *APIError {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	messages := make([]string, len(errs))
	fields := make([]interface{}, len(errs))
	for i, err := range errs {
		messages[i] = err.Message
		fields[i] = err.Details
	}

	return New(400, CodeInvalidConfig, fmt.Sprintf("%d config errors: %s", len(errs), strings.Join(messages, "; "))).
		WithDetails(map[string]interface{}{
			"errors": fields,
			"count":  len(errs),
		})
}
