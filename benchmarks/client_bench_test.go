package benchmarks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/client"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/transport"
)

// newTrackerServer answers every endpoint with a small canned body
func newTrackerServer(tb testing.TB) *httptest.Server {
	ticket, _ := json.Marshal(client.Ticket{ID: "t-1", ProjectID: "p-1", Title: "bench", Status: client.StatusOpen})
	page, _ := json.Marshal(client.List[client.Ticket]{Items: []client.Ticket{{ID: "t-1"}, {ID: "t-2"}}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/tickets":
			_, _ = w.Write(page)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write(ticket)
		}
	}))
	tb.Cleanup(server.Close)
	return server
}

func createTestClient(tb testing.TB, options ...client.Option) *client.Client {
	server := newTrackerServer(tb)
	c, err := client.New(server.URL, append([]client.Option{client.WithToken("bench")}, options...)...)
	if err != nil {
		tb.Fatal(err)
	}
	return c
}

// BenchmarkClientOperations benchmarks various client operations
func BenchmarkClientOperations(b *testing.B) {
	b.Run("GetTicket", func(b *testing.B) {
		benchmarkGetTicket(b)
	})

	b.Run("CreateTicket", func(b *testing.B) {
		benchmarkCreateTicket(b)
	})

	b.Run("ListTickets", func(b *testing.B) {
		benchmarkListTickets(b)
	})

	b.Run("ConcurrentGets/10", func(b *testing.B) {
		benchmarkConcurrentGets(b, 10)
	})

	b.Run("ConcurrentGets/100", func(b *testing.B) {
		benchmarkConcurrentGets(b, 100)
	})

	b.Run("WithPrometheus", func(b *testing.B) {
		benchmarkWithPrometheus(b)
	})

	b.Run("WithoutMiddleware", func(b *testing.B) {
		benchmarkWithoutMiddleware(b)
	})
}

func benchmarkGetTicket(b *testing.B) {
	ctx := context.Background()
	c := createTestClient(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Tickets.Get(ctx, "t-1"); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkCreateTicket(b *testing.B) {
	ctx := context.Background()
	c := createTestClient(b)
	in := client.TicketInput{ProjectID: "p-1", Title: "bench", Labels: []string{"perf"}}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Tickets.Create(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkListTickets(b *testing.B) {
	ctx := context.Background()
	c := createTestClient(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Tickets.List(ctx, &client.ListOptions{Filters: map[string]string{"status": "open"}}); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkConcurrentGets(b *testing.B, concurrency int) {
	ctx := context.Background()
	c := createTestClient(b)

	b.SetParallelism(concurrency)
	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.Tickets.Get(ctx, "t-1"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkWithPrometheus(b *testing.B) {
	ctx := context.Background()
	recorder, err := observability.NewPrometheusRecorder(observability.MetricsConfig{
		Namespace:  "bench",
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		b.Fatal(err)
	}
	c := createTestClient(b, client.WithMetrics(recorder))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Tickets.Get(ctx, "t-1"); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkWithoutMiddleware(b *testing.B) {
	ctx := context.Background()
	c := createTestClient(b, client.WithFeatures(transport.FeatureConfig{DisableReliability: true}))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Tickets.Get(ctx, "t-1"); err != nil {
			b.Fatal(err)
		}
	}
}
