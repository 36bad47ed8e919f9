package editor

import (
	"context"
	"sync"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/internal/repository/memory"
	"notes-sync-be/internal/service"

	"github.com/google/uuid"
)

// fakeClock runs timer callbacks synchronously from Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			if target > c.now {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		if next.at > c.now {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// armed counts timers that would still fire.
func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type updateCall struct {
	Id      uuid.UUID
	Title   *string
	Content *string
}

// recordingStore is the real notes service over the in-memory repository, with hooks
// for recording calls and injecting failures or delays.
type recordingStore struct {
	inner    service.INoteService
	seedRepo func(n *entity.Note)

	mu         sync.Mutex
	updates    []updateCall
	searches   []string
	lists      int
	failUpdate error
	failCreate error
	failDelete error
	failSearch error

	// updateStarted and updateGate, when set, let a test hold an update in flight.
	updateStarted chan struct{}
	updateGate    chan struct{}
	beforeSearch  func(query string)
	// afterRead runs once List or Search has its results, before they are returned.
	afterRead func(query string)
}

func newRecordingStore() *recordingStore {
	factory := memory.NewRepositoryFactory(memory.NewNoteCache())
	s := &recordingStore{
		inner: service.NewNoteService(factory, nil, nil, logger.NewNopLogger()),
	}
	s.seedRepo = func(n *entity.Note) {
		ctx := context.Background()
		if err := factory.NewUnitOfWork(ctx).NoteRepository().Create(ctx, n); err != nil {
			panic(err)
		}
	}
	return s
}

var seedBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// seed inserts notes so that the first title is the most recently updated.
func (s *recordingStore) seed(titles ...string) []*entity.Note {
	out := make([]*entity.Note, len(titles))
	for i, title := range titles {
		at := seedBase.Add(-time.Duration(i) * time.Minute)
		n := &entity.Note{Id: uuid.New(), Title: title, Content: "", CreatedAt: at, UpdatedAt: at}
		s.seedRepo(n)
		out[i] = n
	}
	return out
}

func (s *recordingStore) List(ctx context.Context) ([]*entity.Note, error) {
	s.mu.Lock()
	s.lists++
	fail := s.failSearch
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	notes, err := s.inner.List(ctx)
	s.readDone("")
	return notes, err
}

func (s *recordingStore) readDone(query string) {
	s.mu.Lock()
	hook := s.afterRead
	s.mu.Unlock()
	if hook != nil {
		hook(query)
	}
}

func (s *recordingStore) Search(ctx context.Context, query string) ([]*entity.Note, error) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	fail := s.failSearch
	hook := s.beforeSearch
	s.mu.Unlock()
	if hook != nil {
		hook(query)
	}
	if fail != nil {
		return nil, fail
	}
	notes, err := s.inner.Search(ctx, query)
	s.readDone(query)
	return notes, err
}

func (s *recordingStore) Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error) {
	s.mu.Lock()
	fail := s.failCreate
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.inner.Create(ctx, req)
}

func (s *recordingStore) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*entity.Note, error) {
	call := updateCall{Id: id}
	if req.Title != nil {
		v := *req.Title
		call.Title = &v
	}
	if req.Content != nil {
		v := *req.Content
		call.Content = &v
	}

	s.mu.Lock()
	s.updates = append(s.updates, call)
	started, gate := s.updateStarted, s.updateGate
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	fail := s.failUpdate
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.inner.Update(ctx, id, req)
}

func (s *recordingStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	fail := s.failDelete
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.inner.Delete(ctx, id)
}

func (s *recordingStore) updateCalls() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updates...)
}

func (s *recordingStore) searchCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func (s *recordingStore) set(fn func(s *recordingStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type notification struct {
	Level   Level
	Message string
}

type notificationLog struct {
	mu   sync.Mutex
	seen []notification
}

func (l *notificationLog) Notify(level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, notification{Level: level, Message: message})
}

func (l *notificationLog) all() []notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notification(nil), l.seen...)
}

type harness struct {
	ctrl    *Controller
	store   *recordingStore
	clock   *fakeClock
	notes   *notificationLog
	answers chan bool
	prompts []string
}

// newHarness builds a controller whose confirmer answers from h.answers (yes when empty).
func newHarness() *harness {
	h := &harness{
		store:   newRecordingStore(),
		clock:   &fakeClock{},
		notes:   &notificationLog{},
		answers: make(chan bool, 4),
	}
	confirm := ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		h.prompts = append(h.prompts, prompt)
		select {
		case a := <-h.answers:
			return a, nil
		default:
			return true, nil
		}
	})
	h.ctrl = NewController(h.store, h.notes, confirm, logger.NewNopLogger(), Config{})
	h.ctrl.afterFunc = h.clock.AfterFunc
	return h
}

func strPtr(s string) *string { return &s }

func updateReq(title, content string) *dto.UpdateNoteRequest {
	return &dto.UpdateNoteRequest{Title: &title, Content: &content}
}
