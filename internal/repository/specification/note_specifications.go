package specification

import (
	"strings"

	"notes-sync-be/internal/entity"

	"gorm.io/gorm"
)

// NoteSearchQuery filters notes whose title OR content contains Query, case-insensitively.
type NoteSearchQuery struct {
	Query string
}

func (s NoteSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + escapeLike(s.Query) + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

func (s NoteSearchQuery) Matches(note *entity.Note) bool {
	q := strings.ToLower(s.Query)
	return strings.Contains(strings.ToLower(note.Title), q) ||
		strings.Contains(strings.ToLower(note.Content), q)
}

// ByTitle filters by exact title
type ByTitle struct {
	Title string
}

func (s ByTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}

func (s ByTitle) Matches(note *entity.Note) bool {
	return note.Title == s.Title
}

// escapeLike makes % and _ in user input match literally (Postgres default escape is backslash).
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
