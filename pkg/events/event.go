package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	NoteCreated = "NOTE_CREATED"
	NoteUpdated = "NOTE_UPDATED"
	NoteDeleted = "NOTE_DELETED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewNoteEvent builds a lifecycle event for a single note.
func NewNoteEvent(eventType string, noteId uuid.UUID, title string, occurredAt time.Time) BaseEvent {
	data := map[string]interface{}{
		"note_id":     noteId.String(),
		"occurred_at": occurredAt.Format(time.RFC3339Nano),
	}
	if title != "" {
		data["title"] = title
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: occurredAt,
	}
}
