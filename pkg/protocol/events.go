package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types pushed by the server. The list is not closed: the server may
// send types this package does not know, and those are still parsed.
const (
	EventConnected     = "connected"
	EventHeartbeat     = "heartbeat"
	EventEntityUpdated = "entity_updated"
)

// Entity actions carried by entity_updated events
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Entity kinds carried by entity_updated events
const (
	EntityTicket    = "ticket"
	EntityProject   = "project"
	EntityWorkspace = "workspace"
)

// Event is one parsed frame of the event stream.
type Event struct {
	// Type is the discriminator tag.
	Type string `json:"type"`

	// Timestamp is the server time the event was produced. It is zero when
	// the frame did not carry one.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Data is the event-specific "data" member, if any.
	Data json.RawMessage `json:"data,omitempty"`

	// Raw is the complete frame payload.
	Raw json.RawMessage `json:"-"`
}

// The typed payloads below take their Timestamp from the parsed Event.

// ConnectedEvent is sent once when the stream is opened
type ConnectedEvent struct {
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"-"`
	ConnectionID string    `json:"connectionId,omitempty"`
}

// HeartbeatEvent keeps idle connections alive
type HeartbeatEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"-"`
}

// EntityUpdatedEvent announces a change to a ticket, project or workspace
type EntityUpdatedEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"-"`
	Entity    string          `json:"entity"`
	ID        string          `json:"id"`
	Action    string          `json:"action,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ParseEvent decodes a single frame payload. The payload must be a JSON
// object with a non-empty "type" member.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("event payload has no type")
	}

	ev.Raw = append(json.RawMessage(nil), payload...)
	return &ev, nil
}

// AsConnected decodes the event as a connected event
func (e *Event) AsConnected() (*ConnectedEvent, error) {
	var out ConnectedEvent
	if err := e.decodeAs(EventConnected, &out); err != nil {
		return nil, err
	}
	out.Timestamp = e.Timestamp
	return &out, nil
}

// AsHeartbeat decodes the event as a heartbeat
func (e *Event) AsHeartbeat() (*HeartbeatEvent, error) {
	var out HeartbeatEvent
	if err := e.decodeAs(EventHeartbeat, &out); err != nil {
		return nil, err
	}
	out.Timestamp = e.Timestamp
	return &out, nil
}

// AsEntityUpdated decodes the event as an entity change notification
func (e *Event) AsEntityUpdated() (*EntityUpdatedEvent, error) {
	var out EntityUpdatedEvent
	if err := e.decodeAs(EventEntityUpdated, &out); err != nil {
		return nil, err
	}
	out.Timestamp = e.Timestamp
	return &out, nil
}

// UnmarshalJSON accepts timestamps as RFC 3339 strings or as Unix
// milliseconds.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type      string          `json:"type"`
		Timestamp json.RawMessage `json:"timestamp,omitempty"`
		Data      json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	ts, err := parseTimestamp(wire.Timestamp)
	if err != nil {
		return err
	}

	e.Type = wire.Type
	e.Timestamp = ts
	e.Data = wire.Data
	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return t, nil
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s", string(raw))
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (e *Event) decodeAs(want string, out interface{}) error {
	if e.Type != want {
		return fmt.Errorf("event type is %q, not %q", e.Type, want)
	}
	if err := json.Unmarshal(e.Raw, out); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", want, err)
	}
	return nil
}
