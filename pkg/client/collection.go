package client

import (
	"context"
	"net/http"
	"net/url"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/pagination"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/transport"
)

// collection implements the CRUD endpoints shared by every resource.
// T is the resource, C the full input for create and replace, and U the
// partial input for update.
type collection[T, C, U any] struct {
	transport *transport.Transport
	path      string
}

func newCollection[T, C, U any](t *transport.Transport, path string) *collection[T, C, U] {
	return &collection[T, C, U]{transport: t, path: path}
}

func (c *collection[T, C, U]) itemPath(id string) (string, error) {
	if id == "" {
		return "", trackererrors.MissingParameter("id")
	}
	return c.path + "/" + url.PathEscape(id), nil
}

// List fetches one page
func (c *collection[T, C, U]) List(ctx context.Context, opts *ListOptions) (*List[T], error) {
	if opts != nil {
		if err := pagination.ValidateParams(&opts.Params); err != nil {
			return nil, trackererrors.Wrap(err, http.StatusBadRequest, trackererrors.CodeBadRequest, err.Error())
		}
	}

	path := c.path
	if q := opts.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	list, err := transport.Do[List[T]](ctx, c.transport, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return &List[T]{}, nil
	}
	return list, nil
}

// ListAll walks every page starting from opts
func (c *collection[T, C, U]) ListAll(ctx context.Context, opts *ListOptions) ([]T, error) {
	next := &ListOptions{}
	if opts != nil {
		next.Filters = opts.Filters
		next.Params = *pagination.ApplyDefaults(&opts.Params)
	} else {
		next.Params = *pagination.ApplyDefaults(nil)
	}

	collector := pagination.NewCollector()
	var all []T
	for collector.HasMore {
		list, err := c.List(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, list.Items...)

		collector.Update(&list.Page, len(list.Items))
		next.Params = *collector.NextParams(&next.Params)
	}
	return all, nil
}

// Get fetches one resource by ID
func (c *collection[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}
	return c.expect(transport.Do[T](ctx, c.transport, http.MethodGet, path, nil))
}

// Create creates a resource. It is never retried.
func (c *collection[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	return c.expect(transport.Do[T](ctx, c.transport, http.MethodPost, c.path, in))
}

// Update applies a partial change. It is never retried.
func (c *collection[T, C, U]) Update(ctx context.Context, id string, patch U) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}
	return c.expect(transport.Do[T](ctx, c.transport, http.MethodPatch, path, patch))
}

// Replace overwrites a resource
func (c *collection[T, C, U]) Replace(ctx context.Context, id string, in C) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}
	return c.expect(transport.Do[T](ctx, c.transport, http.MethodPut, path, in))
}

// Delete removes a resource
func (c *collection[T, C, U]) Delete(ctx context.Context, id string) error {
	path, err := c.itemPath(id)
	if err != nil {
		return err
	}
	_, err = c.transport.Request(ctx, http.MethodDelete, path, nil)
	return err
}

// expect turns an empty body on an endpoint that must return the resource
// into an error.
func (c *collection[T, C, U]) expect(v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, trackererrors.New(http.StatusInternalServerError, trackererrors.CodeUnknownError, "empty response body for "+c.path)
	}
	return v, nil
}

// TicketsService is the /tickets endpoint group
type TicketsService struct {
	*collection[Ticket, TicketInput, TicketPatch]
}

// ListByProject lists one page of a project's tickets
func (s *TicketsService) ListByProject(ctx context.Context, projectID string, opts *ListOptions) (*List[Ticket], error) {
	if projectID == "" {
		return nil, trackererrors.MissingParameter("projectID")
	}
	scoped := opts.withFilter("project_id", projectID)
	return s.List(ctx, scoped)
}

// ProjectsService is the /projects endpoint group
type ProjectsService struct {
	*collection[Project, ProjectInput, ProjectPatch]
}

// WorkspacesService is the /workspaces endpoint group
type WorkspacesService struct {
	*collection[Workspace, WorkspaceInput, WorkspacePatch]
}
