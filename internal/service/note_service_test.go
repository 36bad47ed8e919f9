package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/internal/repository/memory"
	"notes-sync-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []dto.PublishNoteEventMessage
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	var msg dto.PublishNoteEventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Type
	}
	return out
}

type mapSearchCache struct {
	generation  int64
	entries     map[string][]*entity.Note
	invalidated int
}

func newMapSearchCache() *mapSearchCache {
	return &mapSearchCache{entries: map[string][]*entity.Note{}}
}

func (c *mapSearchCache) key(gen int64, q string) string {
	return searchKey(gen, q)
}

func (c *mapSearchCache) Lookup(ctx context.Context, query string) ([]*entity.Note, int64, bool) {
	notes, ok := c.entries[c.key(c.generation, query)]
	return notes, c.generation, ok
}

func (c *mapSearchCache) Store(ctx context.Context, generation int64, query string, notes []*entity.Note) {
	c.entries[c.key(generation, query)] = notes
}

func (c *mapSearchCache) Invalidate(ctx context.Context) {
	c.generation++
	c.invalidated++
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t interface{ Helper() }) (*noteService, *recordingPublisher, *fakeClock) {
	t.Helper()
	pub := &recordingPublisher{}
	clock := &fakeClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewNoteService(
		memory.NewRepositoryFactory(memory.NewNoteCache()),
		pub,
		nil,
		logger.NewNopLogger(),
	).(*noteService)
	svc.now = clock.now
	return svc, pub, clock
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsTitle(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()

	blank, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "   "})
	require.NoError(t, err)
	assert.Equal(t, DefaultNoteTitle, blank.Title)
	assert.Equal(t, "", blank.Content)
	assert.NotEqual(t, uuid.Nil, blank.Id)
	assert.Equal(t, blank.CreatedAt, blank.UpdatedAt)

	absent, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultNoteTitle, absent.Title)

	named, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "  Groceries ", Content: "milk"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", named.Title)
	assert.Equal(t, "milk", named.Content)

	assert.Equal(t, []string{events.NoteCreated, events.NoteCreated, events.NoteCreated}, pub.types())
}

func TestListOrdersByUpdatedAtDesc(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	first, _ := svc.Create(ctx, &dto.CreateNoteRequest{Title: "first"})
	clock.advance(time.Minute)
	second, _ := svc.Create(ctx, &dto.CreateNoteRequest{Title: "second"})
	clock.advance(time.Minute)
	_, err := svc.Update(ctx, first.Id, &dto.UpdateNoteRequest{Content: strPtr("bumped")})
	require.NoError(t, err)

	notes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.Id, notes[0].Id)
	assert.Equal(t, second.Id, notes[1].Id)
}

func TestUpdateIsPartial(t *testing.T) {
	svc, pub, clock := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "Untitled", Content: "body"})
	require.NoError(t, err)
	clock.advance(2 * time.Second)

	updated, err := svc.Update(ctx, note.Id, &dto.UpdateNoteRequest{Title: strPtr("Groceries")})
	require.NoError(t, err)

	assert.Equal(t, "Groceries", updated.Title)
	assert.Equal(t, "body", updated.Content)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
	assert.Equal(t, events.NoteUpdated, pub.types()[1])
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, uuid.New(), &dto.UpdateNoteRequest{})
	assert.True(t, errs.Is(err, errs.InvalidArgument))

	_, err = svc.Update(ctx, uuid.New(), &dto.UpdateNoteRequest{Title: strPtr("x")})
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDelete(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()

	note, _ := svc.Create(ctx, &dto.CreateNoteRequest{Title: "doomed"})
	require.NoError(t, svc.Delete(ctx, note.Id))

	notes, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, events.NoteDeleted, pub.types()[1])

	err = svc.Delete(ctx, note.Id)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestSearchMatchesTitleOrContent(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	inContent, _ := svc.Create(ctx, &dto.CreateNoteRequest{Title: "Errands", Content: "buy Oat Milk"})
	clock.advance(time.Second)
	inTitle, _ := svc.Create(ctx, &dto.CreateNoteRequest{Title: "MILK run"})
	clock.advance(time.Second)
	_, _ = svc.Create(ctx, &dto.CreateNoteRequest{Title: "Taxes", Content: "receipts"})

	hits, err := svc.Search(ctx, "  milk ")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, inTitle.Id, hits[0].Id)
	assert.Equal(t, inContent.Id, hits[1].Id)

	none, err := svc.Search(ctx, "zebra")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchLiteralWildcards(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, &dto.CreateNoteRequest{Title: "100% done"})
	_, _ = svc.Create(ctx, &dto.CreateNoteRequest{Title: "1000 done"})

	hits, err := svc.Search(ctx, "0%")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "100% done", hits[0].Title)
}

func testBlankSearchEqualsList(t *rapid.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	n := rapid.IntRange(0, 8).Draw(t, "notes")
	for i := 0; i < n; i++ {
		title := rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "title")
		content := rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "content")
		if _, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: title, Content: content}); err != nil {
			t.Fatalf("create: %v", err)
		}
		clock.advance(time.Second)
	}
	blank := rapid.StringMatching(`[ \t\n]{0,4}`).Draw(t, "blank")

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	searched, err := svc.Search(ctx, blank)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(listed) != len(searched) {
		t.Fatalf("len mismatch: list=%d search=%d", len(listed), len(searched))
	}
	for i := range listed {
		if listed[i].Id != searched[i].Id {
			t.Fatalf("order mismatch at %d", i)
		}
	}
}

func TestBlankSearchEqualsList(t *testing.T) {
	rapid.Check(t, testBlankSearchEqualsList)
}

func testUpdatedAtNeverDecreases(t *rapid.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "clock"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	last := note.UpdatedAt

	steps := rapid.IntRange(1, 20).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		// The wall clock may jump backwards between writes.
		clock.advance(time.Duration(rapid.IntRange(-5000, 5000).Draw(t, "skewMs")) * time.Millisecond)
		updated, err := svc.Update(ctx, note.Id, &dto.UpdateNoteRequest{Content: strPtr("v")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.UpdatedAt.Before(last) {
			t.Fatalf("updated_at went backwards: %v -> %v", last, updated.UpdatedAt)
		}
		last = updated.UpdatedAt
	}
}

func TestUpdatedAtNeverDecreases(t *testing.T) {
	rapid.Check(t, testUpdatedAtNeverDecreases)
}

func TestSearchCacheInvalidatedByWrites(t *testing.T) {
	svc, _, _ := newTestService(t)
	cache := newMapSearchCache()
	svc.searchCache = cache
	ctx := context.Background()

	_, _ = svc.Create(ctx, &dto.CreateNoteRequest{Title: "alpha"})
	first, err := svc.Search(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, _ = svc.Create(ctx, &dto.CreateNoteRequest{Title: "alpha two"})
	second, err := svc.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, second, 2, "write must not be hidden by a cached result")
	assert.Equal(t, 2, cache.invalidated)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub, _ := newTestService(t)
	pub.err = errors.New("bus closed")

	note, err := svc.Create(context.Background(), &dto.CreateNoteRequest{Title: "still saved"})
	require.NoError(t, err)
	assert.Equal(t, "still saved", note.Title)
}
