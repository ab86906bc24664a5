// Package transport is the request and event layer of the tracker SDK.
//
// It turns a logical API call into one or more HTTP exchanges, retries the
// ones that are safe to retry, and normalizes every failure into an
// *errors.APIError. It also holds the server-sent event stream open for
// subscribers.
//
// # Requests
//
// A Transport is built from a TransportConfig. Each request goes through a
// middleware chain:
//
//	ObservabilityMiddleware   one log line, metric and span per request
//	ReliabilityMiddleware     retry state machine with exponential backoff
//	exchange                  token resolution and a single HTTP exchange
//
// Usage:
//
//	config := transport.DefaultTransportConfig("https://tracker.example.com/api/v1")
//	config.TokenProvider = auth.EnvToken("TRACKER_TOKEN")
//	t, err := transport.NewTransport(config)
//	if err != nil {
//		return err
//	}
//
//	ticket, err := transport.Do[Ticket](ctx, t, http.MethodGet, "/tickets/42", nil)
//
// Only idempotent methods (GET, HEAD, OPTIONS, PUT, DELETE) are retried, and
// only when no response arrived or the status was 429 or 5xx. The delay
// before retry n (zero-based) is MinDelay × Factor^n, without jitter.
//
// # Events
//
// A Subscriber opens the event stream in one of two ways, chosen once when
// the subscriber is created. The native channel uses an SSE client library
// and needs a real *http.Client. The manual channel reads the body itself
// and works with any Doer. Both reconnect after a fixed delay for as long as
// the subscription is active.
//
//	sub := transport.NewSubscriber(t, transport.DefaultSubscriberConfig())
//	router := transport.NewEventRouter().
//		On(protocol.EventEntityUpdated, func(ev *protocol.Event) { ... })
//	s := sub.SubscribeEvents(ctx, router)
//	defer s.Cancel()
package transport
