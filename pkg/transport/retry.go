package transport

import (
	"math"
	"time"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/protocol"
)

// RetryDecision is the outcome of one retry evaluation
type RetryDecision struct {
	ShouldRetry bool
	Delay       time.Duration
}

// DelayMs returns the delay in whole milliseconds
func (d RetryDecision) DelayMs() int64 {
	return d.Delay.Milliseconds()
}

// RetryController decides whether a failed attempt is retried and how long
// to wait first. It is a pure function of its inputs: there is no jitter and
// no per-request state.
type RetryController struct {
	policy RetryPolicy
}

// NewRetryController creates a controller for policy
func NewRetryController(policy RetryPolicy) *RetryController {
	return &RetryController{policy: policy}
}

// Policy returns the controller's policy
func (c *RetryController) Policy() RetryPolicy {
	return c.policy
}

// Decide evaluates attempt (zero-based) that failed with status, where
// status 0 means no response was received.
func (c *RetryController) Decide(method string, status, attempt int) RetryDecision {
	if !IsIdempotent(method) || !IsRetryableStatus(status) || attempt >= c.policy.MaxAttempts {
		return RetryDecision{}
	}
	return RetryDecision{ShouldRetry: true, Delay: c.Backoff(attempt)}
}

// Backoff returns MinDelay × Factor^attempt, capped at MaxDelay when set
func (c *RetryController) Backoff(attempt int) time.Duration {
	delay := float64(c.policy.MinDelay) * math.Pow(c.policy.Factor, float64(attempt))
	if c.policy.MaxDelay > 0 && delay > float64(c.policy.MaxDelay) {
		return c.policy.MaxDelay
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// IsIdempotent reports whether method may be repeated safely
func IsIdempotent(method string) bool {
	return protocol.IsIdempotent(method)
}

// IsRetryableStatus reports whether status is transient: no response (0),
// 429, or any 5xx
func IsRetryableStatus(status int) bool {
	return status == 0 || status == 429 || (status >= 500 && status <= 599)
}
