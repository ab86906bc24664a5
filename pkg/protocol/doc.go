// Package protocol defines the wire types exchanged with the tracker API.
//
// The API speaks conventional HTTP+JSON. Failed responses may carry a
// structured error body, and the server can push change events over a
// long-lived text/event-stream response.
//
// # Package Organization
//
//   - errors.go: The structured error envelope sent with failed responses
//   - events.go: The Event union delivered over the event stream and its typed payloads
//   - methods.go: HTTP method constants and the idempotency table used by the retry policy
//
// # Error Envelope
//
// A failed response may carry a body of the form:
//
//	{"error": {"code": "NOT_FOUND", "message": "ticket t-1 not found", "details": {...}}}
//
// # Event Frames
//
// Each data frame on the event stream is a single line prefixed with "data: "
// whose remainder is one JSON object with at least a "type" member:
//
//	data: {"type":"heartbeat","timestamp":"2024-05-01T10:00:00Z"}
//
//	data: {"type":"entity_updated","entity":"ticket","id":"t-1","action":"updated","data":{...}}
//
// Unrecognized event types are preserved rather than rejected.
package protocol
