package protocol

import (
	"net/http"
	"strings"
)

// HTTP methods used by the endpoint wrappers
const (
	MethodGet     = http.MethodGet
	MethodHead    = http.MethodHead
	MethodOptions = http.MethodOptions
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodPatch   = http.MethodPatch
	MethodDelete  = http.MethodDelete
)

// idempotentMethods lists the methods whose repeated execution leaves the
// same end state as a single execution.
var idempotentMethods = map[string]bool{
	MethodGet:     true,
	MethodHead:    true,
	MethodOptions: true,
	MethodPut:     true,
	MethodDelete:  true,
}

// IsIdempotent reports whether method may be safely repeated.
// POST and PATCH are never idempotent.
func IsIdempotent(method string) bool {
	return idempotentMethods[strings.ToUpper(method)]
}
