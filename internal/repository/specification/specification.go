package specification

import (
	"notes-sync-be/internal/entity"

	"gorm.io/gorm"
)

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Predicate is implemented by specifications that can also filter an in-memory collection.
type Predicate interface {
	Matches(note *entity.Note) bool
}

// Sorter is implemented by specifications that can also order an in-memory collection.
type Sorter interface {
	Sort(notes []*entity.Note)
}
