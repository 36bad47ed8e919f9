package memory

import (
	"context"
	"fmt"

	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/repository/contract"
	"notes-sync-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// NoteRepository keeps notes in a process-local cache with no expiry.
// It backs DB_DRIVER=memory and the service tests; it understands the
// specifications that implement specification.Predicate or specification.Sorter.
type NoteRepository struct {
	cache *cache.Cache
}

func NewNoteRepository(c *cache.Cache) contract.NoteRepository {
	return &NoteRepository{cache: c}
}

// NewNoteCache creates the backing cache shared by every repository handed out by the factory.
func NewNoteCache() *cache.Cache {
	return cache.New(cache.NoExpiration, 0)
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	if note.Id == uuid.Nil {
		note.Id = uuid.New()
	}
	if err := r.cache.Add(note.Id.String(), note.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("create note %s: %w", note.Id, err)
	}
	return nil
}

func (r *NoteRepository) Update(ctx context.Context, note *entity.Note) error {
	x, found := r.cache.Get(note.Id.String())
	if !found {
		return contract.ErrNotFound
	}
	stored := x.(*entity.Note).Clone()
	stored.Title = note.Title
	stored.Content = note.Content
	stored.UpdatedAt = note.UpdatedAt
	if err := r.cache.Replace(note.Id.String(), stored, cache.NoExpiration); err != nil {
		return contract.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, found := r.cache.Get(id.String()); !found {
		return contract.ErrNotFound
	}
	r.cache.Delete(id.String())
	return nil
}

func (r *NoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (r *NoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var predicates []specification.Predicate
	var sorters []specification.Sorter
	for _, spec := range specs {
		matched := false
		if p, ok := spec.(specification.Predicate); ok {
			predicates = append(predicates, p)
			matched = true
		}
		if s, ok := spec.(specification.Sorter); ok {
			sorters = append(sorters, s)
			matched = true
		}
		if !matched {
			return nil, fmt.Errorf("memory repository: unsupported specification %T", spec)
		}
	}

	notes := make([]*entity.Note, 0)
	for _, item := range r.cache.Items() {
		n := item.Object.(*entity.Note)
		keep := true
		for _, p := range predicates {
			if !p.Matches(n) {
				keep = false
				break
			}
		}
		if keep {
			notes = append(notes, n.Clone())
		}
	}

	for _, s := range sorters {
		s.Sort(notes)
	}
	return notes, nil
}

func (r *NoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(notes)), nil
}
