// Package pagination provides utilities for cursor-paginated list endpoints.
//
// List endpoints accept a cursor and a limit as query parameters and answer
// with a page of items plus a next cursor:
//
//	{"items": [...], "next_cursor": "c2", "has_more": true}
//
// The package provides:
//
//   - Parameter validation: ValidateParams rejects negative or oversized limits
//   - Default application: ApplyDefaults fills in DefaultLimit and caps at MaxLimit
//   - Page walking: Collector tracks the cursor across pages
//
// # Walking Every Page
//
//	collector := pagination.NewCollector()
//	params := pagination.ApplyDefaults(nil)
//	for collector.HasMore {
//	    page, err := c.Tickets.List(ctx, projectID, params)
//	    if err != nil {
//	        return err
//	    }
//	    all = append(all, page.Items...)
//	    collector.Update(&page.Page, len(page.Items))
//	    params = collector.NextParams(params)
//	}
//
// The client's ListAll methods do exactly this.
package pagination
