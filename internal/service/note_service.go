package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/internal/repository/contract"
	"notes-sync-be/internal/repository/specification"
	"notes-sync-be/internal/repository/unitofwork"
	"notes-sync-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultNoteTitle = "Untitled"

// INoteService is the notes store: CRUD and substring search over the notes table.
// Every error it returns is an *errs.StoreError.
type INoteService interface {
	List(ctx context.Context) ([]*entity.Note, error)
	Search(ctx context.Context, query string) ([]*entity.Note, error)
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	searchCache      ISearchCache
	logger           logger.ILogger
	tracer           trace.Tracer
	now              func() time.Time
}

// NewNoteService wires the store. publisherService and searchCache are optional.
func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	searchCache ISearchCache,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		searchCache:      searchCache,
		logger:           log,
		tracer:           otel.Tracer("notes-sync-be/internal/service"),
		now:              time.Now,
	}
}

func (s *noteService) List(ctx context.Context) ([]*entity.Note, error) {
	ctx, span := s.tracer.Start(ctx, "NoteService.List")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, specification.RecentlyUpdated())
	if err != nil {
		return nil, s.fail(span, storeError("notes.list", "failed to list notes", err))
	}
	return notes, nil
}

func (s *noteService) Search(ctx context.Context, query string) ([]*entity.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	ctx, span := s.tracer.Start(ctx, "NoteService.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("search.query_length", len(query)))

	generation := int64(-1)
	if s.searchCache != nil {
		cached, gen, hit := s.searchCache.Lookup(ctx, query)
		span.SetAttributes(attribute.Bool("search.cache_hit", hit))
		if hit {
			return cached, nil
		}
		generation = gen
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.NoteSearchQuery{Query: query},
		specification.RecentlyUpdated(),
	)
	if err != nil {
		return nil, s.fail(span, storeError("notes.search", "failed to search notes", err))
	}

	if s.searchCache != nil {
		s.searchCache.Store(ctx, generation, query, notes)
	}
	return notes, nil
}

func (s *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error) {
	ctx, span := s.tracer.Start(ctx, "NoteService.Create")
	defer span.End()

	if req == nil {
		req = &dto.CreateNoteRequest{}
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultNoteTitle
	}

	now := s.now().UTC()
	note := entity.Note{
		Id:        uuid.New(),
		Title:     title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, s.fail(span, storeError("notes.create", "failed to create note", err))
	}
	span.SetAttributes(attribute.String("note.id", note.Id.String()))

	s.afterWrite(ctx, events.NoteCreated, &note)
	return &note, nil
}

func (s *noteService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*entity.Note, error) {
	ctx, span := s.tracer.Start(ctx, "NoteService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("note.id", id.String()))

	if req.IsEmpty() {
		return nil, s.fail(span, errs.New("notes.update", errs.InvalidArgument, "at least one of title or content is required"))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, s.fail(span, storeError("notes.update", "failed to update note", err))
	}
	defer uow.Rollback()

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, s.fail(span, storeError("notes.update", "failed to update note", err))
	}
	if note == nil {
		return nil, s.fail(span, errs.New("notes.update", errs.NotFound, "note not found"))
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}

	// updated_at never moves backwards, even if the clock does.
	now := s.now().UTC()
	if now.Before(note.UpdatedAt) {
		now = note.UpdatedAt
	}
	note.UpdatedAt = now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, s.fail(span, storeError("notes.update", "failed to update note", err))
	}
	if err := uow.Commit(); err != nil {
		return nil, s.fail(span, storeError("notes.update", "failed to update note", err))
	}

	s.afterWrite(ctx, events.NoteUpdated, note)
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "NoteService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("note.id", id.String()))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return s.fail(span, storeError("notes.delete", "failed to delete note", err))
	}

	s.afterWrite(ctx, events.NoteDeleted, &entity.Note{Id: id})
	return nil
}

// afterWrite invalidates cached searches and announces the change.
// Neither step can fail the write that already happened.
func (s *noteService) afterWrite(ctx context.Context, eventType string, note *entity.Note) {
	if s.searchCache != nil {
		s.searchCache.Invalidate(ctx)
	}
	if s.publisherService == nil {
		return
	}

	payload, err := json.Marshal(dto.PublishNoteEventMessage{
		Type:       eventType,
		NoteId:     note.Id,
		Title:      note.Title,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("NoteService", "Failed to publish note event", map[string]interface{}{
			"error":   err.Error(),
			"type":    eventType,
			"note_id": note.Id,
		})
	}
}

func (s *noteService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, errs.MessageOf(err))
	return err
}

// storeError classifies repository failures.
func storeError(op, message string, err error) error {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		return errs.Wrap(op, errs.NotFound, "note not found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.Wrap(op, errs.Unavailable, message, err)
	default:
		return errs.Wrap(op, errs.Internal, message, err)
	}
}
