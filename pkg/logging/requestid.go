package logging

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// RequestIDGenerator generates unique request IDs
type RequestIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random UUID request IDs
type UUIDGenerator struct{}

// Generate generates a new UUID
func (g *UUIDGenerator) Generate() string {
	return uuid.New().String()
}

// PrefixedGenerator prepends a fixed prefix to another generator's IDs
type PrefixedGenerator struct {
	Prefix    string
	Generator RequestIDGenerator
}

// Generate generates a new prefixed ID
func (g *PrefixedGenerator) Generate() string {
	gen := g.Generator
	if gen == nil {
		gen = &UUIDGenerator{}
	}
	return fmt.Sprintf("%s-%s", g.Prefix, gen.Generate())
}

// RoundTripper logs every outgoing exchange at debug level, after it
// completes, with the status and duration.
type RoundTripper struct {
	next   http.RoundTripper
	logger Logger
}

// NewRoundTripper wraps next. A nil next uses http.DefaultTransport.
func NewRoundTripper(next http.RoundTripper, logger Logger) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &RoundTripper{next: next, logger: logger.WithFields(String(KeyComponent, "http"))}
}

// RoundTrip implements http.RoundTripper
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)

	fields := []Field{
		String(KeyMethod, req.Method),
		String(KeyPath, req.URL.Path),
		Duration("duration", time.Since(start)),
	}
	if id := req.Header.Get(RequestIDHeader); id != "" {
		fields = append(fields, String(KeyRequestID, id))
	}

	if err != nil {
		rt.logger.Debug("exchange failed", append(fields, ErrorField(err))...)
		return nil, err
	}
	rt.logger.Debug("exchange completed", append(fields, Int("status", resp.StatusCode))...)
	return resp, nil
}
