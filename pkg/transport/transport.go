package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
)

// Transport is the request façade: it builds each logical request, sends it
// through the middleware chain and normalizes every failure. A Transport
// holds only read-only state and is safe for concurrent use.
type Transport struct {
	config    TransportConfig
	exec      *executor
	requester Requester
	logger    logging.Logger
}

// NewTransport creates a new transport from config
func NewTransport(config TransportConfig) (*Transport, error) {
	if err := validateTransportConfig(config); err != nil {
		return nil, err
	}
	config = applyDefaults(config)

	exec := newExecutor(config)
	base := &exchangeRequester{
		exec:    exec,
		tokens:  config.TokenProvider,
		metrics: config.Metrics,
	}

	builder := NewMiddlewareBuilder(config)
	requester := ChainMiddleware(builder.Build()...).Wrap(base)

	return &Transport{
		config:    config,
		exec:      exec,
		requester: requester,
		logger:    config.Logger,
	}, nil
}

// Config returns a copy of the transport's configuration with defaults applied
func (t *Transport) Config() TransportConfig {
	config := t.config
	config.Headers = make(map[string]string, len(t.config.Headers))
	for k, v := range t.config.Headers {
		config.Headers[k] = v
	}
	return config
}

// BaseURL returns the API root without a trailing slash
func (t *Transport) BaseURL() string {
	return t.config.BaseURL
}

// Request performs one logical request. body is JSON-encoded unless it is
// nil, a []byte or a json.RawMessage, which are sent as-is. Every returned
// error is an *errors.APIError.
func (t *Transport) Request(ctx context.Context, method, path string, body interface{}) (*Result, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:    strings.ToUpper(method),
		Path:      normalizePath(path),
		Body:      payload,
		Header:    make(http.Header),
		RequestID: t.config.RequestIDs.Generate(),
	}

	result, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, trackererrors.FromError(err)
	}
	return result, nil
}

// Do performs a request and decodes the response into a T. A no-content
// response yields (nil, nil). A body that does not decode is an
// UNKNOWN_ERROR; a partial value is never returned.
func Do[T any](ctx context.Context, t *Transport, method, path string, body interface{}) (*T, error) {
	result, err := t.Request(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if result.NoContent {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(result.Body, &out); err != nil {
		return nil, trackererrors.Wrap(err, http.StatusInternalServerError, trackererrors.CodeUnknownError, "failed to decode response body")
	}
	return &out, nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, trackererrors.Wrap(err, http.StatusBadRequest, trackererrors.CodeBadRequest, "failed to encode request body")
	}
	return data, nil
}

func normalizePath(path string) string {
	if path == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
