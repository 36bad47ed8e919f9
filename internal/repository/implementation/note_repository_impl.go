package implementation

import (
	"context"
	"errors"

	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/mapper"
	"notes-sync-be/internal/model"
	"notes-sync-be/internal/repository/contract"
	"notes-sync-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

// scoped returns a context-bound query narrowed by specs, starting from base (or the plain db).
func (r *NoteRepositoryImpl) scoped(ctx context.Context, base *gorm.DB, specs []specification.Specification) *gorm.DB {
	q := r.db.WithContext(ctx)
	if base != nil {
		q = base.WithContext(ctx)
	}
	for _, spec := range specs {
		q = spec.Apply(q)
	}
	return q
}

// mustAffect turns a write that matched no row into contract.ErrNotFound.
func mustAffect(res *gorm.DB) error {
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return contract.ErrNotFound
	}
	return nil
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

// Update writes title, content and updated_at only; created_at is never touched.
func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entity.Note) error {
	return mustAffect(r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", note.Id).
		Updates(map[string]interface{}{
			"title":      note.Title,
			"content":    note.Content,
			"updated_at": note.UpdatedAt,
		}))
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).Delete(&model.Note{}, "id = ?", id))
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	err := r.scoped(ctx, nil, specs).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var rows []*model.Note
	if err := r.scoped(ctx, nil, specs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	err := r.scoped(ctx, r.db.Model(&model.Note{}), specs).Count(&n).Error
	return n, err
}
