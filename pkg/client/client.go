package client

import (
	"context"
	"net/http"
	"time"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/transport"
)

// HealthPath is the liveness endpoint
const HealthPath = "/health"

// ClientConfig collects what New needs. Options edit it before the
// transport is built.
type ClientConfig struct {
	Transport  transport.TransportConfig
	Subscriber transport.SubscriberConfig
}

// Option defines options for creating a client
type Option func(*ClientConfig)

// WithToken authenticates every request with a fixed bearer token
func WithToken(token string) Option {
	return func(c *ClientConfig) {
		c.Transport.TokenProvider = auth.StaticToken(token)
	}
}

// WithTokenProvider sets the bearer token source
func WithTokenProvider(p auth.TokenProvider) Option {
	return func(c *ClientConfig) {
		c.Transport.TokenProvider = p
	}
}

// WithHTTPClient replaces the exchange primitive
func WithHTTPClient(doer transport.Doer) Option {
	return func(c *ClientConfig) {
		c.Transport.HTTPClient = doer
	}
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *ClientConfig) {
		c.Transport.Timeout = d
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(p transport.RetryPolicy) Option {
	return func(c *ClientConfig) {
		c.Transport.Retry = p
	}
}

// WithHeader adds a static header sent on every request
func WithHeader(key, value string) Option {
	return func(c *ClientConfig) {
		if c.Transport.Headers == nil {
			c.Transport.Headers = make(map[string]string)
		}
		c.Transport.Headers[key] = value
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *ClientConfig) {
		c.Transport.UserAgent = ua
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(c *ClientConfig) {
		c.Transport.Logger = logger
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r observability.Recorder) Option {
	return func(c *ClientConfig) {
		c.Transport.Metrics = r
	}
}

// WithTracing enables request spans
func WithTracing(tp *observability.TracingProvider) Option {
	return func(c *ClientConfig) {
		c.Transport.Tracing = tp
	}
}

// WithFeatures toggles the reliability and observability layers
func WithFeatures(features transport.FeatureConfig) Option {
	return func(c *ClientConfig) {
		c.Transport.Features = features
	}
}

// WithSubscriberConfig sets how event subscriptions connect
func WithSubscriberConfig(config transport.SubscriberConfig) Option {
	return func(c *ClientConfig) {
		c.Subscriber = config
	}
}

// Client is the tracker API client. It is safe for concurrent use.
type Client struct {
	transport  *transport.Transport
	subscriber *transport.Subscriber

	Tickets    *TicketsService
	Projects   *ProjectsService
	Workspaces *WorkspacesService
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, options ...Option) (*Client, error) {
	config := ClientConfig{
		Transport:  transport.DefaultTransportConfig(baseURL),
		Subscriber: transport.DefaultSubscriberConfig(),
	}
	for _, option := range options {
		option(&config)
	}

	t, err := transport.NewTransport(config.Transport)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(t, config.Subscriber), nil
}

// NewWithTransport creates a client on top of an existing transport
func NewWithTransport(t *transport.Transport, subscriber transport.SubscriberConfig) *Client {
	return &Client{
		transport:  t,
		subscriber: transport.NewSubscriber(t, subscriber),
		Tickets:    &TicketsService{newCollection[Ticket, TicketInput, TicketPatch](t, "/tickets")},
		Projects:   &ProjectsService{newCollection[Project, ProjectInput, ProjectPatch](t, "/projects")},
		Workspaces: &WorkspacesService{newCollection[Workspace, WorkspaceInput, WorkspacePatch](t, "/workspaces")},
	}
}

// Transport returns the underlying transport
func (c *Client) Transport() *transport.Transport {
	return c.transport
}

// Health reports the server's liveness
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	status, err := transport.Do[HealthStatus](ctx, c.transport, http.MethodGet, HealthPath, nil)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &HealthStatus{Status: "ok"}, nil
	}
	return status, nil
}

// Subscribe delivers every raw event payload to handler until the
// subscription is cancelled or ctx ends.
func (c *Client) Subscribe(ctx context.Context, handler func(payload []byte)) *transport.Subscription {
	return c.subscriber.Subscribe(ctx, handler)
}

// SubscribeEvents parses each payload and routes it through router
func (c *Client) SubscribeEvents(ctx context.Context, router *transport.EventRouter) *transport.Subscription {
	return c.subscriber.SubscribeEvents(ctx, router)
}
