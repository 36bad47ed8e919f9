package specification

import (
	"fmt"
	"sort"

	"notes-sync-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

func (s ByID) Matches(note *entity.Note) bool {
	return note.Id == s.ID
}

// OrderBy applies ordering. Only the note timestamp columns can be sorted in memory.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

func (s OrderBy) Sort(notes []*entity.Note) {
	key := func(n *entity.Note) int64 {
		switch s.Field {
		case "created_at":
			return n.CreatedAt.UnixNano()
		default:
			return n.UpdatedAt.UnixNano()
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if s.Desc {
			return key(notes[i]) > key(notes[j])
		}
		return key(notes[i]) < key(notes[j])
	})
}

// RecentlyUpdated is the default listing order of the notes table.
func RecentlyUpdated() OrderBy {
	return OrderBy{Field: "updated_at", Desc: true}
}
