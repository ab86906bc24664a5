package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
)

// maxErrorBody bounds how much of a failed stream response is kept for the
// error message
const maxErrorBody = 64 << 10

// Result is a successful (2xx) exchange
type Result struct {
	Status int
	Header http.Header
	Body   json.RawMessage
	// NoContent is set for 204 and for an empty body
	NoContent bool
	// Attempts is the number of exchanges the logical request took
	Attempts int
}

// Decode unmarshals the body into v. It is a no-op for NoContent results.
func (r *Result) Decode(v interface{}) error {
	if r.NoContent {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// executor performs single exchanges. It knows nothing about retries.
type executor struct {
	client    *resty.Client
	baseURL   string
	timeout   time.Duration
	headers   map[string]string
	userAgent string
}

func newExecutor(config TransportConfig) *executor {
	var client *resty.Client
	if hc, ok := config.HTTPClient.(*http.Client); ok {
		copied := *hc
		client = resty.NewWithClient(&copied)
	} else {
		client = resty.New().SetTransport(doerRoundTripper{doer: config.HTTPClient})
	}

	client.
		SetRetryCount(0).
		SetAllowGetMethodPayload(true).
		SetDisableWarn(true).
		SetLogger(logging.NewPrintfAdapter(config.Logger, "resty"))

	return &executor{
		client:    client,
		baseURL:   config.BaseURL,
		timeout:   config.Timeout,
		headers:   config.Headers,
		userAgent: config.UserAgent,
	}
}

func (e *executor) newRequest(ctx context.Context, header http.Header, token string) *resty.Request {
	r := e.client.R().
		SetContext(ctx).
		SetHeaders(e.headers).
		SetHeader("User-Agent", e.userAgent)
	for k, values := range header {
		for _, v := range values {
			r.Header.Add(k, v)
		}
	}
	if token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
	}
	return r
}

// execute performs one exchange bounded by the per-attempt timeout. Non-2xx
// responses and local failures come back as *errors.ExchangeError.
func (e *executor) execute(ctx context.Context, req *Request, token string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	r := e.newRequest(ctx, req.Header, token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if req.RequestID != "" {
		r.SetHeader(logging.RequestIDHeader, req.RequestID)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, e.baseURL+req.Path)
	if err != nil {
		return nil, &trackererrors.ExchangeError{Cause: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status > 299 {
		return nil, &trackererrors.ExchangeError{Status: status, Body: body}
	}

	return &Result{
		Status:    status,
		Header:    resp.Header(),
		Body:      json.RawMessage(body),
		NoContent: status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0,
	}, nil
}

// openStream opens the event stream at path and returns its body unread.
// The caller owns the body. ctx bounds the whole stream, so no per-attempt
// timeout applies.
func (e *executor) openStream(ctx context.Context, path, token string) (io.ReadCloser, error) {
	resp, err := e.newRequest(ctx, nil, token).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		SetDoNotParseResponse(true).
		Execute(http.MethodGet, e.baseURL+path)
	if err != nil {
		return nil, &trackererrors.ExchangeError{Cause: err}
	}

	body := resp.RawBody()
	status := resp.StatusCode()
	if status < 200 || status > 299 {
		var data []byte
		if body != nil {
			data, _ = io.ReadAll(io.LimitReader(body, maxErrorBody))
			body.Close()
		}
		return nil, &trackererrors.ExchangeError{Status: status, Body: data}
	}
	if body == nil {
		return nil, &trackererrors.ExchangeError{Status: status}
	}
	return body, nil
}

// doerRoundTripper lets resty drive a Doer that is not an *http.Client
type doerRoundTripper struct {
	doer Doer
}

func (d doerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return d.doer.Do(req)
}

// exchangeRequester is the innermost Requester: it resolves the token and
// performs one exchange.
type exchangeRequester struct {
	exec    *executor
	tokens  auth.TokenProvider
	metrics observability.Recorder
}

func (b *exchangeRequester) Do(ctx context.Context, req *Request) (*Result, error) {
	token, err := auth.Resolve(ctx, b.tokens)
	if err != nil {
		if trackererrors.IsTimeout(err) {
			return nil, &trackererrors.ExchangeError{Cause: err}
		}
		return nil, trackererrors.Wrap(err, http.StatusUnauthorized, trackererrors.CodeUnauthorized, "failed to resolve token")
	}

	start := time.Now()
	result, err := b.exec.execute(ctx, req, token)
	b.metrics.RecordAttempt(ctx, req.Method, exchangeStatus(result, err), time.Since(start))
	if err != nil {
		return nil, err
	}

	result.Attempts = req.Attempt + 1
	return result, nil
}

// exchangeStatus is the status the retry controller sees: the HTTP status,
// or 0 when no response was received
func exchangeStatus(result *Result, err error) int {
	if err == nil {
		if result != nil {
			return result.Status
		}
		return 0
	}
	var exchErr *trackererrors.ExchangeError
	if stderrors.As(err, &exchErr) {
		return exchErr.Status
	}
	if apiErr, ok := trackererrors.AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}
