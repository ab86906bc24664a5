package transport

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
)

// ObservabilityMiddleware logs, measures and traces each logical request.
// It sits outside the reliability layer, so one request produces one log
// line, one request metric and one span however many attempts it took.
type ObservabilityMiddleware struct {
	logger  logging.Logger
	metrics observability.Recorder
	tracing *observability.TracingProvider
}

// NewObservabilityMiddleware creates a new observability middleware
func NewObservabilityMiddleware(config TransportConfig) Middleware {
	config = applyDefaults(config)
	return &ObservabilityMiddleware{
		logger:  config.Logger.WithFields(logging.String(logging.KeyComponent, "transport")),
		metrics: config.Metrics,
		tracing: config.Tracing,
	}
}

// Wrap implements the Middleware interface
func (om *ObservabilityMiddleware) Wrap(next Requester) Requester {
	return &observabilityRequester{next: next, middleware: om}
}

type observabilityRequester struct {
	next       Requester
	middleware *ObservabilityMiddleware
}

// Do wraps the underlying Do with logging, metrics and tracing
func (ot *observabilityRequester) Do(ctx context.Context, req *Request) (result *Result, err error) {
	om := ot.middleware
	start := time.Now()
	logger := om.logger.WithFields(
		logging.String(logging.KeyRequestID, req.RequestID),
		logging.String(logging.KeyMethod, req.Method),
		logging.String(logging.KeyPath, req.Path),
	)

	if om.tracing != nil {
		var span trace.Span
		ctx, span = om.tracing.StartRequestSpan(ctx, req.Method, req.Path)
		om.tracing.SetAttributes(ctx, attribute.String("tracker.request_id", req.RequestID))

		req = req.clone()
		if req.Header == nil {
			req.Header = make(http.Header)
		}
		om.tracing.InjectHeaders(ctx, req.Header)

		defer func() {
			status, attempts := 0, 0
			if result != nil {
				status, attempts = result.Status, result.Attempts
			} else if err != nil {
				status = trackererrors.StatusOf(err)
			}
			om.tracing.EndRequestSpan(span, status, attempts, err)
		}()
	}

	logger.Debug("sending request")

	result, err = ot.next.Do(ctx, req)
	duration := time.Since(start)

	if err != nil {
		apiErr := trackererrors.FromError(err)
		om.metrics.RecordRequest(ctx, req.Method, apiErr.Code, duration)

		failed := logger.WithError(apiErr)
		if apiErr.Status >= 500 {
			failed.Error("request failed", logging.Duration("duration", duration))
		} else {
			failed.Warn("request failed", logging.Duration("duration", duration))
		}
		return nil, apiErr
	}

	om.metrics.RecordRequest(ctx, req.Method, observability.OutcomeSuccess, duration)
	logger.Debug("request completed",
		logging.Int("status", result.Status),
		logging.Int("attempts", result.Attempts),
		logging.Duration("duration", duration),
	)
	return result, nil
}
