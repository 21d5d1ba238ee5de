package event

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Direction indicates which side of the connection produced an event.
type Direction int

const (
	// Inbound events were received from a remote actor.
	Inbound Direction = iota
	// Outbound events are on their way to a remote actor.
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Target is one stop on an event's traversal: a dispatch handler that can
// accept the event. Defined here so the marker does not depend on the
// dispatch package.
type Target interface {
	Name() string
	Cancelled() bool
	Enqueue(ev *Event) error
}

// Event is one protocol message routed through zero or more listeners.
// The payload may be rewritten by listener callbacks; everything else is
// set once. At most one handler queue holds a given Event at any time,
// and the owner/worker stamp is only written by the worker currently
// invoking a callback, so no locking is needed here.
type Event struct {
	id        string
	direction Direction
	payload   json.RawMessage
	marker    *Marker

	owner    Target
	workerID string
}

// New builds an event that will traverse the given targets in order.
func New(direction Direction, payload json.RawMessage, targets []Target) *Event {
	return &Event{
		id:        uuid.NewString(),
		direction: direction,
		payload:   payload,
		marker:    NewMarker(targets),
	}
}

func (e *Event) ID() string           { return e.id }
func (e *Event) Direction() Direction { return e.direction }

// Payload returns the current payload bytes.
func (e *Event) Payload() json.RawMessage { return e.payload }

// SetPayload replaces the payload. Listener callbacks call this to rewrite
// an event before it continues traversal.
func (e *Event) SetPayload(p json.RawMessage) { e.payload = p }

// Marker returns the traversal cursor for this event.
func (e *Event) Marker() *Marker { return e.marker }

// Claim stamps the event with the handler and worker currently processing
// it.
func (e *Event) Claim(owner Target, workerID string) {
	e.owner = owner
	e.workerID = workerID
}

// Owner returns the handler that last claimed this event, or nil.
func (e *Event) Owner() Target { return e.owner }

// WorkerID returns the identity of the worker that last claimed this
// event, or "".
func (e *Event) WorkerID() string { return e.workerID }
