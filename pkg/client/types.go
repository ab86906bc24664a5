package client

import (
	"net/url"
	"time"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/pagination"
)

// Ticket statuses
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusClosed     = "closed"
)

// Ticket priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket is a unit of tracked work inside a project
type Ticket struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TicketInput is the full body of a ticket create or replace
type TicketInput struct {
	ProjectID   string   `json:"project_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// TicketPatch is a partial ticket update. Nil fields are left unchanged.
type TicketPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
}

// Project groups tickets inside a workspace
type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Archived    bool      `json:"archived,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectInput is the full body of a project create or replace
type ProjectInput struct {
	WorkspaceID string `json:"workspace_id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectPatch is a partial project update
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
}

// Workspace is the top-level tenant
type Workspace struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceInput is the full body of a workspace create or replace
type WorkspaceInput struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// WorkspacePatch is a partial workspace update
type WorkspacePatch struct {
	Name *string `json:"name,omitempty"`
}

// List is one page of a list endpoint
type List[T any] struct {
	Items []T `json:"items"`
	pagination.Page
}

// ListOptions selects a page and filters a list endpoint
type ListOptions struct {
	pagination.Params

	// Filters are extra query parameters, e.g. "status": "open".
	Filters map[string]string
}

func (o *ListOptions) query() url.Values {
	if o == nil {
		return url.Values{}
	}
	q := o.Params.Query()
	for k, v := range o.Filters {
		q.Set(k, v)
	}
	return q
}

// withFilter returns a copy of o with one more filter set
func (o *ListOptions) withFilter(key, value string) *ListOptions {
	out := &ListOptions{Filters: map[string]string{key: value}}
	if o != nil {
		out.Params = o.Params
		for k, v := range o.Filters {
			if k != key {
				out.Filters[k] = v
			}
		}
	}
	return out
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// String returns a pointer to s, for patch fields
func String(s string) *string { return &s }

// Bool returns a pointer to b, for patch fields
func Bool(b bool) *bool { return &b }
