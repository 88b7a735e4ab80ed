package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	PersonCreated = "person.created"
	PersonSaved   = "person.saved"
	PersonDeleted = "person.deleted"
)

// PersonEvent records a committed change to one person.
type PersonEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of PersonCreated, PersonSaved or PersonDeleted
	Type string `json:"type"`

	PersonID int64 `json:"person_id"`

	// Payload holds the person as stored after the change. It is empty for
	// deletions.
	Payload json.RawMessage `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *PersonEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewPersonEvent creates a PersonEvent. A nil payload leaves Payload empty.
func NewPersonEvent(eventType string, personID int64, payload any) (*PersonEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &PersonEvent{
		ID:        uuid.New(),
		Type:      eventType,
		PersonID:  personID,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *PersonEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *PersonEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *PersonEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *PersonEvent) error {
	return f(ctx, event)
}
