// Package tracker provides a Go client for the tracker HTTP+JSON API.
//
// The SDK consists of several sub-packages:
//
//   - pkg/transport: request execution, retries, and the event subscriber
//   - pkg/errors: the normalized *APIError every operation returns
//   - pkg/client: typed wrappers for tickets, projects and workspaces
//   - pkg/protocol: wire types for error bodies and stream events
//   - pkg/auth: bearer token providers
//   - pkg/logging: structured logging
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//   - pkg/pagination: cursor pagination helpers
//
// # Creating a Client
//
//	c, err := tracker.NewClient("https://tracker.example.com/api/v1",
//	    tracker.WithToken(os.Getenv("TRACKER_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ticket, err := c.Tickets.Get(ctx, "t-42")
//	if apiErr, ok := tracker.AsAPIError(err); ok {
//	    log.Printf("%s (%d): %s", apiErr.Code, apiErr.Status, apiErr.Message)
//	}
//
// # Retries
//
// GET, HEAD, OPTIONS, PUT and DELETE are retried on network failures, 429
// and 5xx responses with exponential backoff (1s, 2s, 4s by default). POST
// and PATCH are sent exactly once. Every attempt gets its own timeout.
//
// # Events
//
// The event subscriber keeps a server-sent event stream open and reconnects
// after a fixed delay whenever it drops:
//
//	router := tracker.NewEventRouter().
//	    On(tracker.EventEntityUpdated, func(e *protocol.Event) {
//	        fmt.Println(string(e.Raw))
//	    })
//	sub := c.SubscribeEvents(ctx, router)
//	defer sub.Cancel()
//
// # Configuration Files
//
// LoadConfigFile reads a TOML file with the same settings:
//
//	base_url = "https://tracker.example.com/api/v1"
//	token_env = "TRACKER_TOKEN"
//
//	[retry]
//	max_attempts = 3
//	min_delay_ms = 1000
//
//	[events]
//	mode = "auto"
//	reconnect_delay_ms = 5000
package tracker
