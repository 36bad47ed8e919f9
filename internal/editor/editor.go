// Package editor holds the debounced edit/sync controller that sits between an editing
// surface (websocket session, CLI) and a Notes Store.
package editor

import (
	"context"
	"errors"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrNoteNotFound   = errors.New("note is not in the current list")
	ErrSaveInProgress = errors.New("changes are still being saved")
	ErrUnknownField   = errors.New("unknown note field")
	ErrClosed         = errors.New("editor is closed")
)

const (
	DefaultSaveDelay   = 600 * time.Millisecond
	DefaultSearchDelay = 350 * time.Millisecond
)

// Field is an editable note field.
type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

// ParseField accepts the wire names of the editable fields.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldTitle, FieldContent:
		return Field(s), nil
	}
	return "", ErrUnknownField
}

// Store is the Notes Store the controller persists through.
// service.INoteService and notesclient.Client both satisfy it.
type Store interface {
	List(ctx context.Context) ([]*entity.Note, error)
	Search(ctx context.Context, query string) ([]*entity.Note, error)
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Confirmer asks the user a yes/no question. It may block until the user answers or ctx ends.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm answers yes without asking.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Snapshot is the list/selection view state.
type Snapshot struct {
	Notes    []*entity.Note
	ActiveId uuid.UUID // uuid.Nil when nothing is selected
	Query    string
	Loading  bool
	Saving   bool
}

func (s Snapshot) Active() *entity.Note {
	if s.ActiveId == uuid.Nil {
		return nil
	}
	for _, n := range s.Notes {
		if n.Id == s.ActiveId {
			return n
		}
	}
	return nil
}

// Config controls the debounce windows. Zero values fall back to the defaults.
type Config struct {
	SaveDelay   time.Duration
	SearchDelay time.Duration
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func applyFields(n *entity.Note, f *dto.UpdateNoteRequest) {
	if f == nil {
		return
	}
	if f.Title != nil {
		n.Title = *f.Title
	}
	if f.Content != nil {
		n.Content = *f.Content
	}
}
