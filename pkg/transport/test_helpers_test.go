package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
)

// MockResponse is one scripted response of MockTrackerServer
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
}

// recordedRequest is what the mock server saw
type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// MockTrackerServer replays scripted responses in order. Once the script is
// exhausted the last response repeats.
type MockTrackerServer struct {
	server    *httptest.Server
	mu        sync.Mutex
	responses []MockResponse
	requests  []recordedRequest
}

// NewMockTrackerServer creates a new mock server
func NewMockTrackerServer(t *testing.T, responses ...MockResponse) *MockTrackerServer {
	t.Helper()
	m := &MockTrackerServer{responses: responses}
	m.server = httptest.NewServer(http.HandlerFunc(m.handler))
	t.Cleanup(m.server.Close)
	return m
}

func (m *MockTrackerServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	n := len(m.requests)
	var resp MockResponse
	if len(m.responses) > 0 {
		idx := n - 1
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		resp = m.responses[idx]
	} else {
		resp = MockResponse{StatusCode: http.StatusOK}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if resp.Body != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	switch b := resp.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

// URL returns the server's base URL
func (m *MockTrackerServer) URL() string {
	return m.server.URL
}

// Requests returns the requests received so far
func (m *MockTrackerServer) Requests() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests received so far
func (m *MockTrackerServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// testConfig returns a config for baseURL with fast retries and no
// observability
func testConfig(baseURL string) TransportConfig {
	config := DefaultTransportConfig(baseURL)
	config.Timeout = 2 * time.Second
	config.Retry = RetryPolicy{MaxAttempts: 2, MinDelay: 10 * time.Millisecond, Factor: 2}
	return config
}

func newTestTransport(t *testing.T, config TransportConfig) *Transport {
	t.Helper()
	tr, err := NewTransport(config)
	if err != nil {
		t.Fatalf("Failed to create transport: %v", err)
	}
	return tr
}

// recordingRecorder captures the measurements the tests assert on
type recordingRecorder struct {
	observability.NopRecorder

	mu         sync.Mutex
	attempts   []int
	delays     []time.Duration
	outcomes   []string
	reconnects int
	events     []string
	parseErrs  int
	states     []string
	open       map[string]int
}

func (r *recordingRecorder) RecordAttempt(_ context.Context, _ string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, status)
}

func (r *recordingRecorder) RecordRetry(_ context.Context, _ string, _ int, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, delay)
}

func (r *recordingRecorder) RecordRequest(_ context.Context, _ string, code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, code)
}

func (r *recordingRecorder) RecordReconnect(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnects++
}

func (r *recordingRecorder) RecordEvent(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingRecorder) RecordParseError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseErrs++
}

// MoveSubscription records the target state, "closed" for a subscription
// that went away, and keeps a per-state count of open subscriptions
func (r *recordingRecorder) MoveSubscription(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open == nil {
		r.open = make(map[string]int)
	}
	if from != "" {
		r.open[from]--
	}
	if to == "" {
		r.states = append(r.states, "closed")
		return
	}
	r.open[to]++
	r.states = append(r.states, to)
}

func (r *recordingRecorder) snapshot() recordingRecorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recordingRecorder{
		attempts:   append([]int(nil), r.attempts...),
		delays:     append([]time.Duration(nil), r.delays...),
		outcomes:   append([]string(nil), r.outcomes...),
		reconnects: r.reconnects,
		events:     append([]string(nil), r.events...),
		parseErrs:  r.parseErrs,
		states:     append([]string(nil), r.states...),
		open:       maps.Clone(r.open),
	}
}

// sseFrame formats one event stream frame
func sseFrame(payload string) string {
	return fmt.Sprintf("data: %s\n\n", payload)
}

// waitFor polls cond until it holds or timeout passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
