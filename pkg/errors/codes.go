package errors

// Codes returned by the server or synthesized by the normalizer
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadGateway         = "BAD_GATEWAY"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeGatewayTimeout     = "GATEWAY_TIMEOUT"
	CodeUnknownError       = "UNKNOWN_ERROR"
)

// Codes produced locally by the transport
const (
	CodeTimeout            = "TIMEOUT"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
	CodeInvalidConfig      = "INVALID_CONFIG"
)

// Sentinel errors for use with errors.Is. Matching is by code only.
var (
	ErrBadRequest         = &APIError{Code: CodeBadRequest, Status: 400, Message: "bad request"}
	ErrUnauthorized       = &APIError{Code: CodeUnauthorized, Status: 401, Message: "unauthorized"}
	ErrForbidden          = &APIError{Code: CodeForbidden, Status: 403, Message: "forbidden"}
	ErrNotFound           = &APIError{Code: CodeNotFound, Status: 404, Message: "resource not found"}
	ErrConflict           = &APIError{Code: CodeConflict, Status: 409, Message: "conflict"}
	ErrValidation         = &APIError{Code: CodeValidationError, Status: 422, Message: "validation failed"}
	ErrRateLimited        = &APIError{Code: CodeRateLimited, Status: 429, Message: "rate limited"}
	ErrTimeout            = &APIError{Code: CodeTimeout, Status: 408, Message: "request timed out"}
	ErrNetwork            = &APIError{Code: CodeNetworkError, Status: 500, Message: "network error"}
	ErrMaxRetriesExceeded = &APIError{Code: CodeMaxRetriesExceeded, Status: 500, Message: "max retries exceeded"}
)

// CodeInfo provides human-readable information about an error code
type CodeInfo struct {
	Code        string
	Status      int
	Description string
	Category    Category
	Severity    Severity
	Retryable   bool
}

// codeRegistry maps error codes to their information
var codeRegistry = map[string]CodeInfo{
	CodeBadRequest:         {CodeBadRequest, 400, "Malformed request", CategoryValidation, SeverityError, false},
	CodeUnauthorized:       {CodeUnauthorized, 401, "Missing or invalid credentials", CategoryAuth, SeverityError, false},
	CodeForbidden:          {CodeForbidden, 403, "Insufficient permissions", CategoryAuth, SeverityError, false},
	CodeNotFound:           {CodeNotFound, 404, "Resource not found", CategoryNotFound, SeverityError, false},
	CodeConflict:           {CodeConflict, 409, "Resource conflict", CategoryConflict, SeverityError, false},
	CodeValidationError:    {CodeValidationError, 422, "Request failed validation", CategoryValidation, SeverityError, false},
	CodeRateLimited:        {CodeRateLimited, 429, "Rate limit exceeded", CategoryRateLimit, SeverityWarning, true},
	CodeInternalError:      {CodeInternalError, 500, "Internal server error", CategoryServer, SeverityError, true},
	CodeBadGateway:         {CodeBadGateway, 502, "Bad gateway", CategoryServer, SeverityError, true},
	CodeServiceUnavailable: {CodeServiceUnavailable, 503, "Service unavailable", CategoryServer, SeverityWarning, true},
	CodeGatewayTimeout:     {CodeGatewayTimeout, 504, "Gateway timeout", CategoryServer, SeverityError, true},
	CodeUnknownError:       {CodeUnknownError, 0, "Unclassified HTTP failure", CategoryInternal, SeverityError, false},
	CodeTimeout:            {CodeTimeout, 408, "Request timed out", CategoryTimeout, SeverityError, true},
	CodeNetworkError:       {CodeNetworkError, 500, "Network failure", CategoryTransport, SeverityError, true},
	CodeMaxRetriesExceeded: {CodeMaxRetriesExceeded, 500, "Retry budget exhausted", CategoryTransport, SeverityCritical, false},
	CodeInvalidConfig:      {CodeInvalidConfig, 400, "Client misconfigured", CategoryValidation, SeverityCritical, false},
}

// statusCodes is the static status -> code table
var statusCodes = map[int]string{
	400: CodeBadRequest,
	401: CodeUnauthorized,
	403: CodeForbidden,
	404: CodeNotFound,
	409: CodeConflict,
	422: CodeValidationError,
	429: CodeRateLimited,
	500: CodeInternalError,
	502: CodeBadGateway,
	503: CodeServiceUnavailable,
	504: CodeGatewayTimeout,
}

// CodeForStatus maps an HTTP status to its code, UNKNOWN_ERROR if unmapped
func CodeForStatus(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return CodeUnknownError
}

// GetCodeInfo returns information about an error code
func GetCodeInfo(code string) (CodeInfo, bool) {
	info, exists := codeRegistry[code]
	return info, exists
}

// GetCodeCategory returns the category of an error code
func GetCodeCategory(code string) Category {
	if info, exists := codeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// GetCodeSeverity returns the severity of an error code
func GetCodeSeverity(code string) Severity {
	if info, exists := codeRegistry[code]; exists {
		return info.Severity
	}
	return SeverityError
}

// IsRetryableCode reports whether a code describes a transient failure.
// Server-defined codes outside the registry are never retryable by code.
func IsRetryableCode(code string) bool {
	if info, exists := codeRegistry[code]; exists {
		return info.Retryable
	}
	return false
}

// ListCodes returns all registered error codes
func ListCodes() []CodeInfo {
	codes := make([]CodeInfo, 0, len(codeRegistry))
	for _, info := range codeRegistry {
		codes = append(codes, info)
	}
	return codes
}
