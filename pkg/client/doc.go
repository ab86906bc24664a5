// Package client provides typed endpoint wrappers for the tracker API.
//
// A Client owns one transport.Transport, so every call shares its retry
// policy, per-attempt timeout, token provider and observability. The
// endpoint groups are:
//
//   - Tickets: units of work, listable per project
//   - Projects: ticket containers inside a workspace
//   - Workspaces: the top-level tenant
//
// Each group offers List, ListAll, Get, Create (POST), Update (PATCH),
// Replace (PUT) and Delete. Create and Update are never retried; the
// others are retried on transient failures.
//
// # Creating a Client
//
//	c, err := client.New("https://tracker.example.com/api/v1",
//	    client.WithToken(os.Getenv("TRACKER_TOKEN")),
//	    client.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ticket, err := c.Tickets.Create(ctx, client.TicketInput{
//	    ProjectID: "p-1",
//	    Title:     "Broken login",
//	})
//	if errors.IsCode(err, errors.CodeConflict) {
//	    // handle conflict
//	}
//
// # Events
//
// Subscribe and SubscribeEvents open the server's event stream and keep it
// open across failures until the subscription is cancelled:
//
//	router := transport.NewEventRouter().
//	    On(protocol.EventEntityUpdated, func(e *protocol.Event) {
//	        upd, _ := e.AsEntityUpdated()
//	        fmt.Println(upd.Entity, upd.ID, upd.Action)
//	    })
//	sub := c.SubscribeEvents(ctx, router)
//	defer sub.Cancel()
package client
