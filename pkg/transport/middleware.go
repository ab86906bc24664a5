package transport

import (
	"context"
	"net/http"
)

// Request is one logical request as it travels down the middleware chain.
// Middleware that changes a field passes a copy to the next layer.
type Request struct {
	Method string
	Path   string
	// Body is the serialized JSON payload, nil for no body
	Body []byte
	// Header carries per-request headers such as trace context
	Header http.Header
	// RequestID is stable across every attempt of the logical request
	RequestID string
	// Attempt is the zero-based attempt number, set by the reliability layer
	Attempt int
}

func (r *Request) clone() *Request {
	c := *r
	if r.Header != nil {
		c.Header = r.Header.Clone()
	}
	return &c
}

// Requester performs a request and returns its result. The base requester
// performs exactly one exchange; middleware layers wrap it.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Result, error)
}

// RequesterFunc is an adapter to allow the use of ordinary functions as a Requester
type RequesterFunc func(ctx context.Context, req *Request) (*Result, error)

// Do implements Requester
func (f RequesterFunc) Do(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// Middleware represents a requester middleware that can wrap a requester
// to add additional functionality like reliability, observability, etc.
type Middleware interface {
	// Wrap wraps the given requester with middleware functionality
	Wrap(next Requester) Requester
}

// MiddlewareFunc is an adapter to allow the use of ordinary functions as middleware
type MiddlewareFunc func(Requester) Requester

// Wrap implements the Middleware interface
func (f MiddlewareFunc) Wrap(next Requester) Requester {
	return f(next)
}

// ChainMiddleware chains multiple middleware together
func ChainMiddleware(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(next Requester) Requester {
		// Apply middleware in reverse order so the first middleware is the outermost
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i].Wrap(next)
		}
		return next
	})
}

// MiddlewareBuilder helps build middleware chains based on configuration
type MiddlewareBuilder struct {
	config     TransportConfig
	middleware []Middleware
}

// NewMiddlewareBuilder creates a new middleware builder
func NewMiddlewareBuilder(config TransportConfig) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		config:     config,
		middleware: make([]Middleware, 0),
	}
}

// Build creates the middleware chain, outermost first: observability sees
// the whole logical request, reliability sees each attempt.
func (b *MiddlewareBuilder) Build() []Middleware {
	if b.config.Features.EnableObservability {
		b.middleware = append(b.middleware, NewObservabilityMiddleware(b.config))
	}

	if !b.config.Features.DisableReliability {
		b.middleware = append(b.middleware, NewReliabilityMiddleware(b.config))
	}

	return b.middleware
}
