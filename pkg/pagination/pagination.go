// Package pagination provides utilities for walking cursor-paginated list
// endpoints of the tracker API.
package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the recommended default page size for paginated results
	DefaultLimit = 50

	// MaxLimit is the maximum allowed page size for paginated results
	MaxLimit = 200
)

var (
	// ErrInvalidLimit is returned when the pagination limit is invalid
	ErrInvalidLimit = errors.New("pagination limit must be greater than 0 and less than or equal to MaxLimit")
)

// Params selects one page of a list endpoint
type Params struct {
	// Cursor is the opaque position returned by the previous page.
	Cursor string `json:"cursor,omitempty"`

	// Limit is the page size. Zero uses DefaultLimit.
	Limit int `json:"limit,omitempty"`
}

// Page is the pagination metadata of a list response
type Page struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"`
}

// ValidateParams validates pagination parameters
func ValidateParams(params *Params) error {
	if params == nil {
		return nil // nil params are valid (will use server defaults)
	}

	if params.Limit < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, params.Limit)
	}

	if params.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d, max is %d", ErrInvalidLimit, params.Limit, MaxLimit)
	}

	// The cursor is opaque; the server validates it.
	return nil
}

// ApplyDefaults returns a copy of params with sensible defaults
func ApplyDefaults(params *Params) *Params {
	if params == nil {
		return &Params{Limit: DefaultLimit}
	}

	result := &Params{
		Cursor: params.Cursor,
		Limit:  params.Limit,
	}

	if result.Limit <= 0 {
		result.Limit = DefaultLimit
	}
	if result.Limit > MaxLimit {
		result.Limit = MaxLimit
	}

	return result
}

// Query encodes params as URL query values. Unset fields are omitted.
func (p *Params) Query() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// HasNextPage checks if there are more pages to fetch
func HasNextPage(page *Page) bool {
	if page == nil {
		return false
	}
	return page.HasMore && page.NextCursor != ""
}

// Collector tracks progress while walking every page of a list
type Collector struct {
	// NextCursor holds the pagination cursor for the next page
	NextCursor string
	// HasMore indicates if there are more pages to fetch
	HasMore bool
	// TotalItems is the total number of items collected so far
	TotalItems int
}

// NewCollector creates a new pagination collector
func NewCollector() *Collector {
	return &Collector{HasMore: true}
}

// Update records one fetched page holding n items
func (c *Collector) Update(page *Page, n int) {
	c.TotalItems += n
	if page == nil {
		c.HasMore = false
		return
	}

	c.NextCursor = page.NextCursor
	c.HasMore = HasNextPage(page)
}

// NextParams returns pagination parameters for the next page
func (c *Collector) NextParams(baseParams *Params) *Params {
	params := ApplyDefaults(baseParams)
	params.Cursor = c.NextCursor
	return params
}
