package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// pendingNote tracks the unsaved state of one note.
type pendingNote struct {
	gen      uint64 // bumped whenever the armed timer is replaced or cancelled
	timer    Timer
	fields   dto.UpdateNoteRequest // edited since the last flush started
	inflight dto.UpdateNoteRequest // carried by the flush currently in flight
	flushing bool
	again    bool // a flush was requested while one was in flight
}

type writeKind int

const (
	wroteUpdate writeKind = iota
	wroteCreate
	wroteDelete
)

// localWrite is a store write that completed while a list or search was being read.
type localWrite struct {
	epoch uint64
	kind  writeKind
}

// Controller turns a stream of edits into debounced partial updates, one timer per note,
// and keeps the cached list and selection consistent with creates, deletes and searches.
//
// Store calls never run under mu. At most one flush per note is in flight; a flush requested
// meanwhile is queued and sent when the first completes.
type Controller struct {
	store     Store
	notifier  Notifier
	confirmer Confirmer
	logger    logger.ILogger
	config    Config
	afterFunc afterFunc

	mu          sync.Mutex
	notes       []*entity.Note
	activeId    uuid.UUID
	query       string
	loading     bool
	pending     map[uuid.UUID]*pendingNote
	writes      int
	searchSeq   uint64
	searchGen   uint64
	searchTimer Timer
	closed      bool

	// Results read before epoch moved past their start are stale for the notes in recent.
	epoch   uint64
	reading int
	recent  map[uuid.UUID]localWrite

	emitMu   sync.Mutex
	observer func(Snapshot)

	wg sync.WaitGroup
}

// NewController builds a controller over store. notifier and confirmer may be nil:
// notifications are then only logged and every delete is declined.
func NewController(store Store, notifier Notifier, confirmer Confirmer, log logger.ILogger, cfg Config) *Controller {
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}
	if cfg.SearchDelay <= 0 {
		cfg.SearchDelay = DefaultSearchDelay
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Controller{
		store:     store,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    log,
		config:    cfg,
		afterFunc: realAfterFunc,
		pending:   make(map[uuid.UUID]*pendingNote),
		recent:    make(map[uuid.UUID]localWrite),
	}
}

// OnChange registers the view callback. It receives a snapshot after every state change,
// serialised and in order. The callback must not call OnChange.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.observer = fn
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	notes := make([]*entity.Note, len(c.notes))
	for i, n := range c.notes {
		notes[i] = n.Clone()
	}
	return Snapshot{
		Notes:    notes,
		ActiveId: c.activeId,
		Query:    c.query,
		Loading:  c.loading,
		Saving:   c.writes > 0,
	}
}

// Saving reports whether any store write is outstanding.
func (c *Controller) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes > 0
}

func (c *Controller) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if c.observer == nil {
		return
	}
	c.observer(c.Snapshot())
}

func (c *Controller) notify(level Level, message string) {
	if c.notifier != nil {
		c.notifier.Notify(level, message)
	}
}

// recordWriteLocked remembers a completed write for the searches currently reading.
func (c *Controller) recordWriteLocked(id uuid.UUID, kind writeKind) {
	if c.reading == 0 {
		return
	}
	c.epoch++
	if prev, ok := c.recent[id]; ok && prev.kind == wroteCreate && kind == wroteUpdate {
		kind = wroteCreate
	}
	c.recent[id] = localWrite{epoch: c.epoch, kind: kind}
}

func (c *Controller) indexOf(id uuid.UUID) int {
	for i, n := range c.notes {
		if n.Id == id {
			return i
		}
	}
	return -1
}

// Select makes id the active note. id must be in the cached list.
func (c *Controller) Select(id uuid.UUID) error {
	c.mu.Lock()
	if c.indexOf(id) < 0 {
		c.mu.Unlock()
		return ErrNoteNotFound
	}
	c.activeId = id
	c.mu.Unlock()

	c.emit()
	return nil
}

// Edit applies value to the cached note immediately and (re)arms the note's save timer.
func (c *Controller) Edit(id uuid.UUID, field Field, value string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrNoteNotFound
	}

	p, ok := c.pending[id]
	if !ok {
		p = &pendingNote{}
		c.pending[id] = p
	}
	v := value
	switch field {
	case FieldTitle:
		c.notes[idx].Title = value
		p.fields.Title = &v
	case FieldContent:
		c.notes[idx].Content = value
		p.fields.Content = &v
	}
	c.armLocked(id, p)
	c.mu.Unlock()

	c.emit()
	return nil
}

// armLocked restarts the quiescence window for one note.
func (c *Controller) armLocked(id uuid.UUID, p *pendingNote) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen
	p.timer = c.afterFunc(c.config.SaveDelay, func() { c.timerFired(id, gen) })
}

func (c *Controller) timerFired(id uuid.UUID, gen uint64) {
	c.mu.Lock()
	p, ok := c.pending[id]
	// A stopped timer may still fire; the generation tells it apart from the armed one.
	if !ok || p.gen != gen || c.closed {
		c.mu.Unlock()
		return
	}
	p.timer = nil
	payload, start := c.takeFlushLocked(p)
	if start {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if start {
		c.emit()
		c.runFlush(id, payload)
	}
}

// takeFlushLocked cancels the note's timer and, unless a flush is already in flight,
// moves the pending fields into a new flush. A flush requested during another is queued.
func (c *Controller) takeFlushLocked(p *pendingNote) (dto.UpdateNoteRequest, bool) {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.fields.IsEmpty() {
		return dto.UpdateNoteRequest{}, false
	}
	if p.flushing {
		p.again = true
		return dto.UpdateNoteRequest{}, false
	}

	payload := p.fields
	p.fields = dto.UpdateNoteRequest{}
	p.inflight = payload
	p.flushing = true
	c.writes++
	return payload, true
}

// runFlush sends payload and any flush queued behind it. The caller has done wg.Add.
func (c *Controller) runFlush(id uuid.UUID, payload dto.UpdateNoteRequest) {
	defer c.wg.Done()
	for {
		req := payload
		note, err := c.store.Update(context.Background(), id, &req)
		next, more := c.finishFlush(id, payload, note, err)
		c.emit()
		if !more {
			return
		}
		payload = next
	}
}

func (c *Controller) finishFlush(id uuid.UUID, sent dto.UpdateNoteRequest, saved *entity.Note, err error) (dto.UpdateNoteRequest, bool) {
	c.mu.Lock()
	c.writes--
	p := c.pending[id]

	if err != nil {
		// No rollback: the optimistic values stay in the cache and the fields stay pending.
		if p != nil {
			failed := sent
			failed.Merge(&p.fields)
			p.fields = failed
		}
	} else if idx := c.indexOf(id); idx >= 0 && saved != nil {
		fresh := saved.Clone()
		if p != nil {
			applyFields(fresh, &p.fields)
		}
		c.notes[idx] = fresh
		c.recordWriteLocked(id, wroteUpdate)
	}

	var next dto.UpdateNoteRequest
	more := false
	if p != nil {
		p.flushing = false
		p.inflight = dto.UpdateNoteRequest{}
		// An armed timer already covers the queued request.
		if p.again && p.timer == nil {
			next, more = c.takeFlushLocked(p)
		}
		p.again = false
		if !more && p.timer == nil && p.fields.IsEmpty() {
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Editor", "Failed to save note", map[string]interface{}{
			"note_id": id,
			"error":   err,
		})
		if p != nil {
			c.notify(LevelError, "Failed to save note: "+errs.MessageOf(err))
		}
	}
	return next, more
}

// Flush sends every note's pending edits now instead of waiting for its timer.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.flushAllLocked()
	c.mu.Unlock()
	c.emit()
}

func (c *Controller) flushAllLocked() {
	for id, p := range c.pending {
		payload, start := c.takeFlushLocked(p)
		if !start {
			continue
		}
		c.wg.Add(1)
		go c.runFlush(id, payload)
	}
}

// Close stops every timer, flushes pending edits and waits for outstanding writes.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.wg.Wait()
		return
	}
	c.closed = true
	c.searchGen++
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	c.flushAllLocked()
	c.mu.Unlock()

	c.wg.Wait()
}

// Create asks the store for a new note, puts it at the front of the list and selects it.
// Like Delete it is refused while another write is outstanding.
func (c *Controller) Create(ctx context.Context) (*entity.Note, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.writes > 0 {
		c.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	c.writes++
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()
	c.emit()

	note, err := c.store.Create(ctx, &dto.CreateNoteRequest{})

	c.mu.Lock()
	c.writes--
	if err == nil {
		c.notes = append([]*entity.Note{note.Clone()}, c.notes...)
		c.activeId = note.Id
		c.recordWriteLocked(note.Id, wroteCreate)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Editor", "Failed to create note", map[string]interface{}{"error": err})
		c.notify(LevelError, "Failed to create note: "+errs.MessageOf(err))
		c.emit()
		return nil, err
	}
	c.emit()
	return note.Clone(), nil
}

// Delete removes a note after the user confirms. It reports whether the note was deleted;
// a declined confirmation is not an error.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	c.mu.Lock()
	title, err := c.checkDeleteLocked(id)
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	if c.confirmer == nil {
		return false, nil
	}
	ok, err := c.confirmer.Confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", title))
	if err != nil {
		c.logger.Warn("Editor", "Delete confirmation failed", map[string]interface{}{"note_id": id, "error": err.Error()})
		return false, err
	}
	if !ok {
		return false, nil
	}

	c.mu.Lock()
	// State may have moved while the prompt was open.
	if _, err := c.checkDeleteLocked(id); err != nil {
		c.mu.Unlock()
		if errors.Is(err, ErrSaveInProgress) {
			c.notify(LevelError, "Changes are still being saved, try deleting again")
		}
		return false, err
	}
	if p, ok := c.pending[id]; ok && p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		p.gen++
	}
	c.writes++
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()
	c.emit()

	err = c.store.Delete(ctx, id)

	c.mu.Lock()
	c.writes--
	if err != nil {
		// Keep the edits; they go out on the usual schedule.
		if p, ok := c.pending[id]; ok && !p.fields.IsEmpty() && !c.closed {
			c.armLocked(id, p)
		}
		c.mu.Unlock()

		c.logger.Error("Editor", "Failed to delete note", map[string]interface{}{"note_id": id, "error": err})
		c.notify(LevelError, "Failed to delete note: "+errs.MessageOf(err))
		c.emit()
		return false, err
	}

	delete(c.pending, id)
	c.recordWriteLocked(id, wroteDelete)
	if idx := c.indexOf(id); idx >= 0 {
		c.notes = append(c.notes[:idx:idx], c.notes[idx+1:]...)
	}
	if c.activeId == id {
		c.activeId = uuid.Nil
		if len(c.notes) > 0 {
			c.activeId = c.notes[0].Id
		}
	}
	c.mu.Unlock()

	c.emit()
	return true, nil
}

func (c *Controller) checkDeleteLocked(id uuid.UUID) (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	if c.writes > 0 {
		return "", ErrSaveInProgress
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return "", ErrNoteNotFound
	}
	return c.notes[idx].Title, nil
}

// Load fetches the full list and selects its first note.
func (c *Controller) Load(ctx context.Context) error {
	return c.Search(ctx, "")
}

// Search replaces the list with the notes matching query; a blank query lists everything.
// If the active note is not among the results the first result becomes active.
// Results of a search overtaken by a newer one are dropped.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.searchSeq++
	seq := c.searchSeq
	c.query = query
	c.loading = true
	c.reading++
	since := c.epoch
	c.mu.Unlock()
	c.emit()

	var (
		notes []*entity.Note
		err   error
	)
	if strings.TrimSpace(query) == "" {
		notes, err = c.store.List(ctx)
	} else {
		notes, err = c.store.Search(ctx, query)
	}

	c.mu.Lock()
	if seq != c.searchSeq || c.closed {
		c.doneReadingLocked()
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err == nil {
		c.applyResultsLocked(notes, since)
	}
	c.doneReadingLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Editor", "Failed to search notes", map[string]interface{}{"query": query, "error": err})
		c.notify(LevelError, "Failed to load notes: "+errs.MessageOf(err))
	}
	c.emit()
	return err
}

func (c *Controller) doneReadingLocked() {
	c.reading--
	if c.reading == 0 {
		clear(c.recent)
	}
}

// applyResultsLocked replaces the list with results read from the store when the cache
// was at epoch since. Writes that completed after that point win over the results.
func (c *Controller) applyResultsLocked(results []*entity.Note, since uint64) {
	wroteSince := func(id uuid.UUID) (writeKind, bool) {
		w, ok := c.recent[id]
		return w.kind, ok && w.epoch > since
	}

	listed := make(map[uuid.UUID]bool, len(results))
	notes := make([]*entity.Note, 0, len(results))
	for _, r := range results {
		kind, stale := wroteSince(r.Id)
		if stale && kind == wroteDelete {
			continue
		}
		listed[r.Id] = true
		if idx := c.indexOf(r.Id); stale && idx >= 0 {
			notes = append(notes, c.notes[idx])
			continue
		}
		n := r.Clone()
		// The store has not seen these edits yet; the cache must keep showing them.
		if p, ok := c.pending[n.Id]; ok {
			applyFields(n, &p.inflight)
			applyFields(n, &p.fields)
		}
		notes = append(notes, n)
	}

	// Notes created after the read started are missing from the results.
	var created []*entity.Note
	for _, n := range c.notes {
		if kind, stale := wroteSince(n.Id); stale && kind == wroteCreate && !listed[n.Id] {
			created = append(created, n)
		}
	}
	c.notes = append(created, notes...)
	notes = c.notes

	if c.indexOf(c.activeId) < 0 {
		c.activeId = uuid.Nil
		if len(notes) > 0 {
			c.activeId = notes[0].Id
		}
	}
}

// SearchInput is the keystroke-level entry point: the query is shown at once and the
// search runs after the input has been quiet for the search delay.
func (c *Controller) SearchInput(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.searchGen++
	gen := c.searchGen
	c.query = query
	c.searchTimer = c.afterFunc(c.config.SearchDelay, func() {
		c.mu.Lock()
		if gen != c.searchGen || c.closed {
			c.mu.Unlock()
			return
		}
		c.searchTimer = nil
		c.mu.Unlock()
		_ = c.Search(context.Background(), query)
	})
	c.mu.Unlock()

	c.emit()
}
