package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatusTable(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{400, CodeBadRequest},
		{401, CodeUnauthorized},
		{403, CodeForbidden},
		{404, CodeNotFound},
		{409, CodeConflict},
		{422, CodeValidationError},
		{429, CodeRateLimited},
		{500, CodeInternalError},
		{502, CodeBadGateway},
		{503, CodeServiceUnavailable},
		{504, CodeGatewayTimeout},
		{418, CodeUnknownError},
		{501, CodeUnknownError},
		{302, CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, nil)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, fmt.Sprintf("HTTP %d", tt.status), err.Message)
			assert.Nil(t, err.Details)
		})
	}
}

func TestFromStatusStructuredBody(t *testing.T) {
	t.Run("used verbatim", func(t *testing.T) {
		body := []byte(`{"error":{"code":"TICKET_LOCKED","message":"ticket t-1 is locked","details":{"by":"u-2"}}}`)
		err := FromStatus(409, body)

		assert.Equal(t, 409, err.Status)
		assert.Equal(t, "TICKET_LOCKED", err.Code)
		assert.Equal(t, "ticket t-1 is locked", err.Message)
		assert.Equal(t, map[string]interface{}{"by": "u-2"}, err.Details)
	})

	t.Run("missing code falls back to table", func(t *testing.T) {
		err := FromStatus(404, []byte(`{"error":{"message":"no such project"}}`))
		assert.Equal(t, CodeNotFound, err.Code)
		assert.Equal(t, "no such project", err.Message)
	})

	t.Run("missing message is synthesized", func(t *testing.T) {
		err := FromStatus(422, []byte(`{"error":{"code":"VALIDATION_ERROR"}}`))
		assert.Equal(t, "HTTP 422", err.Message)
	})

	t.Run("unstructured body is ignored", func(t *testing.T) {
		for _, body := range []string{"<html>bad gateway</html>", `{"message":"x"}`, `{"error":"boom"}`, `{"error":{}}`} {
			err := FromStatus(502, []byte(body))
			assert.Equal(t, CodeBadGateway, err.Code, body)
			assert.Equal(t, "HTTP 502", err.Message, body)
		}
	})
}

func TestFromStatusIsTotal(t *testing.T) {
	bodies := [][]byte{nil, []byte(""), []byte("garbage"), []byte(`{"error":{"code":"X","message":"y"}}`)}
	for status := -5; status < 1000; status += 7 {
		for _, body := range bodies {
			err := FromStatus(status, body)
			require.NotNil(t, err)
			assert.GreaterOrEqual(t, err.Status, 100)
			assert.LessOrEqual(t, err.Status, 599)
			assert.NotEmpty(t, err.Code)
			assert.NotEmpty(t, err.Message)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestFromError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
		assert.NoError(t, Normalize(nil))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := FromError(&ExchangeError{Cause: context.DeadlineExceeded})
		assert.Equal(t, 408, err.Status)
		assert.Equal(t, CodeTimeout, err.Code)
		assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	})

	t.Run("cancelled", func(t *testing.T) {
		err := FromError(fmt.Errorf("do: %w", context.Canceled))
		assert.Equal(t, 408, err.Status)
		assert.Equal(t, CodeTimeout, err.Code)
	})

	t.Run("net timeout", func(t *testing.T) {
		err := FromError(&ExchangeError{Cause: timeoutErr{}})
		assert.Equal(t, CodeTimeout, err.Code)
	})

	t.Run("dns failure", func(t *testing.T) {
		dnsErr := &net.DNSError{Err: "no such host", Name: "tracker.invalid"}
		err := FromError(&ExchangeError{Cause: dnsErr})
		assert.Equal(t, 500, err.Status)
		assert.Equal(t, CodeNetworkError, err.Code)
		assert.Equal(t, dnsErr.Error(), err.Message)
	})

	t.Run("exchange with status", func(t *testing.T) {
		err := FromError(&ExchangeError{Status: 503})
		assert.Equal(t, 503, err.Status)
		assert.Equal(t, CodeServiceUnavailable, err.Code)
	})

	t.Run("api error passes through", func(t *testing.T) {
		orig := New(401, CodeUnauthorized, "token rejected")
		err := FromError(fmt.Errorf("wrapped: %w", orig))
		assert.Same(t, orig, err)
	})

	t.Run("normalize returns api error", func(t *testing.T) {
		err := Normalize(stderrors.New("connection reset by peer"))
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, CodeNetworkError, apiErr.Code)
		assert.Equal(t, "connection reset by peer", apiErr.Message)
	})
}

func TestAPIErrorIs(t *testing.T) {
	err := FromStatus(404, nil)
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrConflict))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.Equal(t, 404, StatusOf(err))
	assert.Equal(t, 0, StatusOf(nil))

	wrapped := fmt.Errorf("get ticket: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
}

func TestAPIErrorJSON(t *testing.T) {
	err := FromStatus(429, nil).WithDetails(map[string]int{"retry_in": 3})

	data, jerr := json.Marshal(err)
	require.NoError(t, jerr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, CodeRateLimited, decoded["code"])
	assert.Equal(t, float64(429), decoded["status"])
	assert.Equal(t, string(CategoryRateLimit), decoded["category"])
	assert.NotNil(t, decoded["details"])
}

func TestMaxRetriesExceeded(t *testing.T) {
	last := &ExchangeError{Status: 503}
	err := MaxRetriesExceeded(4, last)
	assert.Equal(t, 500, err.Status)
	assert.Equal(t, CodeMaxRetriesExceeded, err.Code)
	assert.Contains(t, err.Message, "4 attempts")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Same(t, last, stderrors.Unwrap(err))
}

func TestCodeRegistry(t *testing.T) {
	for _, info := range ListCodes() {
		got, ok := GetCodeInfo(info.Code)
		require.True(t, ok)
		assert.Equal(t, info, got)
		assert.NotEmpty(t, got.Description)
	}

	assert.True(t, IsRetryableCode(CodeServiceUnavailable))
	assert.True(t, IsRetryableCode(CodeNetworkError))
	assert.False(t, IsRetryableCode(CodeNotFound))
	assert.False(t, IsRetryableCode("SOMETHING_CUSTOM"))
	assert.Equal(t, CategoryInternal, GetCodeCategory("SOMETHING_CUSTOM"))
}

func TestConfigErrors(t *testing.T) {
	assert.Nil(t, CombineConfigErrors(nil))

	single := InvalidConfig("timeout", -1, "must be positive")
	assert.Same(t, single, CombineConfigErrors([]*APIError{single}))

	combined := CombineConfigErrors([]*APIError{
		single,
		InvalidConfig("base_url", "", "required"),
	})
	assert.Equal(t, CodeInvalidConfig, combined.Code)
	assert.Equal(t, 400, combined.Status)
	assert.Contains(t, combined.Message, "timeout")
	assert.Contains(t, combined.Message, "base_url")

	missing := MissingParameter("id")
	assert.Equal(t, CodeBadRequest, missing.Code)
}

func TestFromBody(t *testing.T) {
	body, ok := FromBody([]byte(`{"error":{"code":"RATE_LIMITED","message":"slow down"}}`))
	assert.True(t, ok)
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.Equal(t, "slow down", body.Message)

	for _, raw := range []string{"", "null", "[]", `{"error":null}`} {
		_, ok := FromBody([]byte(raw))
		assert.False(t, ok, raw)
	}
}
