package transport

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
)

// ReliabilityMiddleware runs the retry state machine:
//
//	ATTEMPTING -> SUCCESS
//	ATTEMPTING -> RETRY_WAIT -> ATTEMPTING
//	ATTEMPTING -> TERMINAL_FAILURE
//
// Attempts are strictly sequential and the backoff wait ends early when the
// caller's context is done.
type ReliabilityMiddleware struct {
	controller *RetryController
	logger     logging.Logger
	metrics    observability.Recorder
	tracing    *observability.TracingProvider
}

// NewReliabilityMiddleware creates a new reliability middleware
func NewReliabilityMiddleware(config TransportConfig) Middleware {
	config = applyDefaults(config)
	return &ReliabilityMiddleware{
		controller: NewRetryController(config.Retry),
		logger:     config.Logger.WithFields(logging.String(logging.KeyComponent, "transport")),
		metrics:    config.Metrics,
		tracing:    config.Tracing,
	}
}

// Wrap implements the Middleware interface
func (rm *ReliabilityMiddleware) Wrap(next Requester) Requester {
	return &reliabilityRequester{next: next, middleware: rm}
}

type reliabilityRequester struct {
	next       Requester
	middleware *ReliabilityMiddleware
}

// Do retries failed attempts as the controller allows
func (rr *reliabilityRequester) Do(ctx context.Context, req *Request) (*Result, error) {
	rm := rr.middleware
	maxAttempts := rm.controller.Policy().MaxAttempts

	var lastErr error
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		attemptReq := req.clone()
		attemptReq.Attempt = attempt

		result, err := rr.next.Do(ctx, attemptReq)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// The caller gave up; nothing left to retry for.
		if ctx.Err() != nil {
			return nil, err
		}

		status := exchangeStatus(nil, err)
		decision := rm.controller.Decide(req.Method, status, attempt)
		if !decision.ShouldRetry {
			return nil, err
		}

		rm.logger.Warn("retrying request",
			logging.String(logging.KeyRequestID, req.RequestID),
			logging.String(logging.KeyMethod, req.Method),
			logging.String(logging.KeyPath, req.Path),
			logging.Int("attempt", attempt+1),
			logging.Int("status", status),
			logging.Duration("delay", decision.Delay),
			logging.ErrorField(err),
		)
		rm.metrics.RecordRetry(ctx, req.Method, attempt, decision.Delay)
		if rm.tracing != nil {
			rm.tracing.AddEvent(ctx, "retry",
				attribute.Int("tracker.attempt", attempt+1),
				attribute.Int("tracker.status", status),
				attribute.Int64("tracker.delay_ms", decision.DelayMs()),
			)
		}

		if err := sleepContext(ctx, decision.Delay); err != nil {
			return nil, &trackererrors.ExchangeError{Cause: err}
		}
	}

	return nil, trackererrors.MaxRetriesExceeded(maxAttempts+1, lastErr)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
