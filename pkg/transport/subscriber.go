package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/protocol"
)

// ChannelMode selects the event channel variant
type ChannelMode string

const (
	// ModeAuto uses the native channel when the transport's exchange
	// primitive is an *http.Client and the manual channel otherwise
	ModeAuto ChannelMode = "auto"
	// ModeNative uses the SSE client library, falling back to manual when
	// it cannot run on the configured exchange primitive
	ModeNative ChannelMode = "native"
	// ModeManual reads and splits the response body itself
	ModeManual ChannelMode = "manual"
)

// ParseChannelMode parses "auto", "native" or "manual"
func ParseChannelMode(s string) (ChannelMode, error) {
	switch mode := ChannelMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeNative, ModeManual:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown event channel mode %q", s)
	}
}

// Defaults applied by DefaultSubscriberConfig
const (
	DefaultEventsPath     = "/events"
	DefaultReconnectDelay = 5 * time.Second
)

// SubscriberConfig configures an event subscriber
type SubscriberConfig struct {
	Path           string        `json:"path"`
	Mode           ChannelMode   `json:"mode"`
	ReconnectDelay time.Duration `json:"reconnectDelay"`

	// OnError receives connection failures and unparseable frames. It is
	// informational; the subscription keeps running.
	OnError func(error) `json:"-"`

	// IDs generates subscription IDs for logs
	IDs logging.RequestIDGenerator `json:"-"`
}

// DefaultSubscriberConfig returns the default subscriber configuration
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		Path:           DefaultEventsPath,
		Mode:           ModeAuto,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

// eventChannel is one way of holding the event stream open. Run keeps the
// stream open, reconnecting as needed, until ctx is done. deliver is called
// sequentially with each frame payload.
type eventChannel interface {
	Mode() ChannelMode
	Run(ctx context.Context, deliver func(payload []byte), obs *streamObserver) error
}

// Subscriber opens event subscriptions against a transport's base URL. The
// channel variant is chosen once, at construction.
type Subscriber struct {
	config  SubscriberConfig
	channel eventChannel
	logger  logging.Logger
	metrics observability.Recorder
	tracing *observability.TracingProvider
}

// NewSubscriber creates a subscriber using t's base URL, credentials,
// exchange primitive and observability sinks
func NewSubscriber(t *Transport, config SubscriberConfig) *Subscriber {
	defaults := DefaultSubscriberConfig()
	if config.Path == "" {
		config.Path = defaults.Path
	}
	config.Path = normalizePath(config.Path)
	if config.Mode == "" {
		config.Mode = defaults.Mode
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = defaults.ReconnectDelay
	}
	if config.IDs == nil {
		config.IDs = &logging.PrefixedGenerator{Prefix: "sub"}
	}

	logger := t.logger.WithFields(logging.String(logging.KeyComponent, "subscriber"))

	return &Subscriber{
		config:  config,
		channel: selectChannel(t, config, logger),
		logger:  logger,
		metrics: t.config.Metrics,
		tracing: t.config.Tracing,
	}
}

func selectChannel(t *Transport, config SubscriberConfig, logger logging.Logger) eventChannel {
	manual := func() eventChannel {
		return &manualChannel{
			exec:   t.exec,
			tokens: t.config.TokenProvider,
			path:   config.Path,
			delay:  config.ReconnectDelay,
		}
	}

	hc, native := t.config.HTTPClient.(*http.Client)
	switch config.Mode {
	case ModeManual:
		return manual()
	case ModeNative:
		if !native {
			logger.Warn("native event channel needs an *http.Client, using manual channel")
			return manual()
		}
	default:
		if !native {
			return manual()
		}
	}
	return newNativeChannel(t, hc, config)
}

// Mode returns the variant selected at construction
func (s *Subscriber) Mode() ChannelMode {
	return s.channel.Mode()
}

// Path returns the event stream path
func (s *Subscriber) Path() string {
	return s.config.Path
}

// Subscribe opens the event stream and calls handler with each frame
// payload until the subscription is cancelled or ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(payload []byte)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     s.config.IDs.Generate(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	logger := s.logger.WithFields(
		logging.String("subscription_id", sub.id),
		logging.String(logging.KeyPath, s.config.Path),
		logging.String("mode", string(s.channel.Mode())),
	)

	var span trace.Span
	if s.tracing != nil {
		ctx, span = s.tracing.StartSpan(ctx, "subscribe "+s.config.Path,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("tracker.subscription_id", sub.id)),
		)
	}

	obs := &streamObserver{
		logger:  logger,
		metrics: s.metrics,
		tracing: s.tracing,
		mode:    s.channel.Mode(),
		onError: s.config.OnError,
	}

	obs.setState(observability.StateConnecting)
	logger.Info("subscription started")

	go func() {
		defer close(sub.done)
		defer cancel()

		err := s.channel.Run(ctx, sub.guard(handler), obs)
		if span != nil {
			span.End()
		}
		obs.setState("")

		if err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded) {
			logger.WithError(err).Error("subscription ended")
			obs.report(err)
			return
		}
		logger.Info("subscription closed")
	}()

	return sub
}

// SubscribeEvents is the typed variant of Subscribe. Each payload is parsed
// into a protocol.Event and dispatched through router. A frame that does not
// parse is reported and skipped; the stream continues.
func (s *Subscriber) SubscribeEvents(ctx context.Context, router *EventRouter) *Subscription {
	if router == nil {
		router = NewEventRouter()
	}
	return s.Subscribe(ctx, func(payload []byte) {
		event, err := protocol.ParseEvent(payload)
		if err != nil {
			s.logger.Warn("failed to parse event frame",
				logging.Int("size", len(payload)),
				logging.ErrorField(err),
			)
			s.metrics.RecordParseError()
			if s.config.OnError != nil {
				s.config.OnError(trackererrors.Wrap(err, http.StatusInternalServerError, trackererrors.CodeUnknownError, "failed to parse event frame"))
			}
			return
		}

		s.metrics.RecordEvent(event.Type)
		router.Dispatch(event)
	})
}

// Subscription is the handle of one open subscription
type Subscription struct {
	id        string
	cancel    context.CancelFunc
	once      sync.Once
	cancelled atomic.Bool
	done      chan struct{}
}

// ID returns the subscription's log correlation ID
func (s *Subscription) ID() string {
	return s.id
}

// Cancel stops the subscription and releases its connection. It is safe to
// call more than once and from inside the handler. No delivery starts after
// Cancel returns, but a delivery already in progress may still be in the
// handler; Wait returns once it has finished.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancelled.Store(true)
		s.cancel()
	})
}

// Cancelled reports whether Cancel has been called
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}

// Done is closed once the subscription has released every resource and the
// handler has returned for the last time
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until Done is closed
func (s *Subscription) Wait() {
	<-s.done
}

func (s *Subscription) guard(handler func([]byte)) func([]byte) {
	return func(payload []byte) {
		if s.cancelled.Load() {
			return
		}
		handler(payload)
	}
}

// streamObserver reports connection transitions of one subscription
type streamObserver struct {
	logger  logging.Logger
	metrics observability.Recorder
	tracing *observability.TracingProvider
	mode    ChannelMode
	onError func(error)

	mu    sync.Mutex
	state string
}

// setState reports this subscription's move to state; "" means closed
func (o *streamObserver) setState(state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == state {
		return
	}
	o.metrics.MoveSubscription(o.state, state)
	o.state = state
}

func (o *streamObserver) connected(ctx context.Context) {
	o.logger.Info("event stream connected")
	o.setState(observability.StateConnected)
	if o.tracing != nil {
		o.tracing.AddEvent(ctx, "connected")
	}
}

func (o *streamObserver) disconnected(ctx context.Context, err error, delay time.Duration) {
	o.logger.WithError(err).Warn("event stream lost, reconnecting", logging.Duration("delay", delay))
	o.metrics.RecordReconnect(string(o.mode))
	o.setState(observability.StateReconnecting)
	if o.tracing != nil {
		o.tracing.RecordError(ctx, err)
	}
	o.report(err)
}

func (o *streamObserver) report(err error) {
	if o.onError != nil {
		o.onError(trackererrors.FromError(err))
	}
}

// EventHandler handles one typed event
type EventHandler func(event *protocol.Event)

// EventRouter dispatches typed events by their type
type EventRouter struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	catchAll []EventHandler
	fallback EventHandler
}

// NewEventRouter creates an empty router
func NewEventRouter() *EventRouter {
	return &EventRouter{handlers: make(map[string][]EventHandler)}
}

// On registers h for events of eventType
func (r *EventRouter) On(eventType string, h EventHandler) *EventRouter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
	return r
}

// OnAny registers h for every event, after the type-specific handlers
func (r *EventRouter) OnAny(h EventHandler) *EventRouter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catchAll = append(r.catchAll, h)
	return r
}

// OnUnknown registers h for events no On handler matched
func (r *EventRouter) OnUnknown(h EventHandler) *EventRouter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
	return r
}

// Dispatch calls the handlers registered for event
func (r *EventRouter) Dispatch(event *protocol.Event) {
	r.mu.RLock()
	handlers := r.handlers[event.Type]
	anyHandlers := r.catchAll
	fallback := r.fallback
	r.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	if len(handlers) == 0 && fallback != nil {
		fallback(event)
	}
	for _, h := range anyHandlers {
		h(event)
	}
}
