package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"max=255"`
	Content string `json:"content"`
}

// UpdateNoteRequest carries only the fields that changed. Nil means "leave as is".
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content *string `json:"content,omitempty"`
}

// IsEmpty reports whether the request changes nothing.
func (r *UpdateNoteRequest) IsEmpty() bool {
	return r == nil || (r.Title == nil && r.Content == nil)
}

// Merge overlays the non-nil fields of other onto r.
func (r *UpdateNoteRequest) Merge(other *UpdateNoteRequest) {
	if other == nil {
		return
	}
	if other.Title != nil {
		v := *other.Title
		r.Title = &v
	}
	if other.Content != nil {
		v := *other.Content
		r.Content = &v
	}
}

type NoteResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SearchNotesRequest struct {
	Query string `query:"q"`
}

type PublishNoteEventMessage struct {
	Type       string    `json:"type"`
	NoteId     uuid.UUID `json:"note_id"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
