package memory

import (
	"context"

	"notes-sync-be/internal/repository/contract"
	"notes-sync-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

// RepositoryFactory hands out units of work over one shared note cache.
// Transactions are no-ops: every repository call is atomic on its own.
type RepositoryFactory struct {
	cache *cache.Cache
}

func NewRepositoryFactory(c *cache.Cache) unitofwork.RepositoryFactory {
	return &RepositoryFactory{cache: c}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{cache: f.cache}
}

type unitOfWork struct {
	cache *cache.Cache
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) NoteRepository() contract.NoteRepository {
	return NewNoteRepository(u.cache)
}
