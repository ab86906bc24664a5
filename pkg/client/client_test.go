package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/pagination"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/transport"
)

// seenRequest is what the test server received
type seenRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type testServer struct {
	*httptest.Server
	mu   sync.Mutex
	seen []seenRequest
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()
	s := &testServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.seen = append(s.seen, seenRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) requests() []seenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]seenRequest(nil), s.seen...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fastRetries() Option {
	return WithRetryPolicy(transport.RetryPolicy{MaxAttempts: 2, MinDelay: 5 * time.Millisecond, Factor: 2})
}

func newTestClient(t *testing.T, baseURL string, options ...Option) *Client {
	t.Helper()
	c, err := New(baseURL, append([]Option{WithToken("secret"), fastRetries()}, options...)...)
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.True(t, trackererrors.IsCode(err, trackererrors.CodeInvalidConfig))

	_, err = New("http://localhost", WithTimeout(-time.Second))
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	c, err := New("http://localhost:9/api/",
		WithHeader("X-Workspace", "acme"),
		WithUserAgent("tests/1.0"),
		WithTimeout(3*time.Second),
		WithFeatures(transport.FeatureConfig{}),
	)
	require.NoError(t, err)

	config := c.Transport().Config()
	assert.Equal(t, "http://localhost:9/api", config.BaseURL)
	assert.Equal(t, "acme", config.Headers["X-Workspace"])
	assert.Equal(t, "tests/1.0", config.UserAgent)
	assert.Equal(t, 3*time.Second, config.Timeout)
	assert.False(t, config.Features.EnableObservability)
}

func TestTicketsCRUD(t *testing.T) {
	created := Ticket{ID: "t-1", ProjectID: "p-1", Title: "Broken login", Status: StatusOpen}
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/tickets":
			writeJSON(w, http.StatusCreated, created)
		case r.Method == http.MethodGet && r.URL.Path == "/tickets/t-1":
			writeJSON(w, http.StatusOK, created)
		case r.Method == http.MethodPatch && r.URL.Path == "/tickets/t-1":
			updated := created
			updated.Status = StatusDone
			writeJSON(w, http.StatusOK, updated)
		case r.Method == http.MethodPut && r.URL.Path == "/tickets/t-1":
			writeJSON(w, http.StatusOK, created)
		case r.Method == http.MethodDelete && r.URL.Path == "/tickets/t-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, protocol.ErrorEnvelope{Error: &protocol.ErrorBody{Code: "NOT_FOUND", Message: "no route"}})
		}
	})
	c := newTestClient(t, server.URL)
	ctx := context.Background()

	ticket, err := c.Tickets.Create(ctx, TicketInput{ProjectID: "p-1", Title: "Broken login"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", ticket.ID)

	ticket, err = c.Tickets.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Broken login", ticket.Title)

	ticket, err = c.Tickets.Update(ctx, "t-1", TicketPatch{Status: String(StatusDone)})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, ticket.Status)

	_, err = c.Tickets.Replace(ctx, "t-1", TicketInput{ProjectID: "p-1", Title: "Broken login"})
	require.NoError(t, err)

	require.NoError(t, c.Tickets.Delete(ctx, "t-1"))

	seen := server.requests()
	require.Len(t, seen, 5)
	for _, r := range seen {
		assert.Equal(t, "Bearer secret", r.Auth)
	}
	assert.JSONEq(t, `{"project_id":"p-1","title":"Broken login"}`, seen[0].Body)
	assert.JSONEq(t, `{"status":"done"}`, seen[2].Body)
	assert.Equal(t, http.MethodPut, seen[3].Method)
	assert.Equal(t, http.MethodDelete, seen[4].Method)
}

func TestNotFoundIsNormalized(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, protocol.ErrorEnvelope{Error: &protocol.ErrorBody{Code: "PROJECT_NOT_FOUND", Message: "no such project"}})
	})
	c := newTestClient(t, server.URL)

	_, err := c.Projects.Get(context.Background(), "p-404")
	require.Error(t, err)
	apiErr, ok := trackererrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "PROJECT_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "no such project", apiErr.Message)
	assert.Len(t, server.requests(), 1)
}

func TestMissingIDIsRejectedLocally(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := c.Workspaces.Get(ctx, "")
	assert.True(t, trackererrors.IsCode(err, trackererrors.CodeBadRequest))
	_, err = c.Projects.Update(ctx, "", ProjectPatch{Name: String("x")})
	assert.Equal(t, 400, trackererrors.StatusOf(err))
	assert.Error(t, c.Tickets.Delete(ctx, ""))
	_, err = c.Tickets.ListByProject(ctx, "", nil)
	assert.Error(t, err)

	assert.Empty(t, server.requests())
}

func TestIDIsPathEscaped(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Workspace{ID: "a/b"})
	})
	c := newTestClient(t, server.URL)

	_, err := c.Workspaces.Get(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/workspaces/a%2Fb", server.requests()[0].Path)
}

func TestCreateIsNeverRetried(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := newTestClient(t, server.URL)

	_, err := c.Workspaces.Create(context.Background(), WorkspaceInput{Slug: "acme", Name: "Acme"})
	assert.True(t, trackererrors.IsCode(err, trackererrors.CodeServiceUnavailable))
	assert.Len(t, server.requests(), 1)
}

func TestGetIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, Project{ID: "p-1", Key: "WEB"})
	})
	c := newTestClient(t, server.URL)

	project, err := c.Projects.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "WEB", project.Key)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmptyBodyWhereResourceExpected(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, server.URL)

	_, err := c.Tickets.Get(context.Background(), "t-1")
	assert.True(t, trackererrors.IsCode(err, trackererrors.CodeUnknownError))
}

func TestListAllWalksPages(t *testing.T) {
	pages := map[string]List[Ticket]{
		"":   {Items: []Ticket{{ID: "t-1"}, {ID: "t-2"}}, Page: pagination.Page{NextCursor: "c2", HasMore: true}},
		"c2": {Items: []Ticket{{ID: "t-3"}}, Page: pagination.Page{NextCursor: "c3", HasMore: true}},
		"c3": {Items: []Ticket{{ID: "t-4"}}},
	}
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, page)
	})
	c := newTestClient(t, server.URL)

	tickets, err := c.Tickets.ListAll(context.Background(), &ListOptions{
		Params:  pagination.Params{Limit: 2},
		Filters: map[string]string{"status": StatusOpen},
	})
	require.NoError(t, err)

	var ids []string
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	assert.Equal(t, []string{"t-1", "t-2", "t-3", "t-4"}, ids)

	seen := server.requests()
	require.Len(t, seen, 3)
	assert.Equal(t, "limit=2&status=open", seen[0].Query)
	assert.Equal(t, "cursor=c2&limit=2&status=open", seen[1].Query)
	assert.Equal(t, "cursor=c3&limit=2&status=open", seen[2].Query)
}

func TestListRejectsBadLimit(t *testing.T) {
	c := newTestClient(t, "http://localhost:9")
	_, err := c.Projects.List(context.Background(), &ListOptions{Params: pagination.Params{Limit: pagination.MaxLimit + 1}})
	assert.Equal(t, 400, trackererrors.StatusOf(err))
}

func TestListByProject(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, List[Ticket]{Items: []Ticket{{ID: "t-9", ProjectID: "p-1"}}})
	})
	c := newTestClient(t, server.URL)

	list, err := c.Tickets.ListByProject(context.Background(), "p-1", &ListOptions{Filters: map[string]string{"project_id": "other", "assignee": "u-1"}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.False(t, list.HasMore)
	assert.Equal(t, "assignee=u-1&project_id=p-1", server.requests()[0].Query)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthStatus{Status: "ok", Version: "2.4.1"})
	})
	c := newTestClient(t, server.URL)

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.4.1", status.Version)
	assert.Equal(t, HealthPath, server.requests()[0].Path)
}

func TestSubscribeEvents(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"type\":\"connected\",\"connectionId\":\"c-1\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"entity_updated\",\"entity\":\"ticket\",\"id\":\"t-1\",\"action\":\"updated\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	c := newTestClient(t, server.URL, WithSubscriberConfig(transport.SubscriberConfig{
		Path:           "/events",
		Mode:           transport.ModeManual,
		ReconnectDelay: 50 * time.Millisecond,
	}))

	updates := make(chan *protocol.EntityUpdatedEvent, 1)
	router := transport.NewEventRouter().On(protocol.EventEntityUpdated, func(e *protocol.Event) {
		upd, err := e.AsEntityUpdated()
		assert.NoError(t, err)
		updates <- upd
	})

	sub := c.SubscribeEvents(context.Background(), router)
	defer sub.Cancel()

	select {
	case upd := <-updates:
		assert.Equal(t, protocol.EntityTicket, upd.Entity)
		assert.Equal(t, "t-1", upd.ID)
		assert.Equal(t, protocol.ActionUpdated, upd.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for entity_updated")
	}

	sub.Cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
	assert.Equal(t, "Bearer secret", server.requests()[0].Auth)
}
