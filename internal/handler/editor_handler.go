package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/editor"
	"notes-sync-be/internal/mapper"
	"notes-sync-be/internal/pkg/logger"
	internalWS "notes-sync-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EditorHandler serves editor sessions: one debounced controller per websocket connection.
type EditorHandler struct {
	store  editor.Store
	hub    *internalWS.Hub
	config editor.Config
	logger logger.ILogger

	sessions sync.WaitGroup
}

func NewEditorHandler(store editor.Store, hub *internalWS.Hub, cfg editor.Config, log logger.ILogger) *EditorHandler {
	return &EditorHandler{
		store:  store,
		hub:    hub,
		config: cfg,
		logger: log,
	}
}

func (h *EditorHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/editor/v1/ws", h.ServeWs)
}

func (h *EditorHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.sessions.Add(1)
		defer h.sessions.Done()

		sessionID := uuid.New()
		h.logger.Info("EditorHandler", "Editor session started", map[string]interface{}{"session_id": sessionID})

		s := newEditorSession(sessionID, h.store, h.config, h.logger, func(frame []byte) bool {
			return h.hub.Send(sessionID, frame)
		})
		internalWS.ServeWs(h.hub, conn, sessionID, s.handle)
		s.close()

		h.logger.Info("EditorHandler", "Editor session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

// Drain waits for open sessions to flush and end. The hub must already be stopping.
func (h *EditorHandler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// editorSession adapts the websocket to the controller: it is the controller's Notifier,
// Confirmer and view, and dispatches inbound frames to it.
type editorSession struct {
	id     uuid.UUID
	ctrl   *editor.Controller
	send   func([]byte) bool
	logger logger.ILogger
	mapper *mapper.NoteMapper

	// ctx ends when the connection does; it releases pending confirmations.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	confirms map[string]chan bool

	wg sync.WaitGroup
}

func newEditorSession(id uuid.UUID, store editor.Store, cfg editor.Config, log logger.ILogger, send func([]byte) bool) *editorSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &editorSession{
		id:       id,
		send:     send,
		logger:   log,
		mapper:   mapper.NewNoteMapper(),
		ctx:      ctx,
		cancel:   cancel,
		confirms: make(map[string]chan bool),
	}
	s.ctrl = editor.NewController(store, s, s, log, cfg)
	s.ctrl.OnChange(s.pushState)
	return s
}

// handle runs on the read goroutine. Anything that waits on the store or on the user runs in
// its own goroutine so a confirm_reply can still be read.
func (s *editorSession) handle(raw []byte) {
	var frame dto.EditorInboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.writeError("malformed frame")
		return
	}

	switch frame.Type {
	case dto.EditorFrameLoad:
		s.async(func() error { return s.ctrl.Load(s.ctx) })

	case dto.EditorFrameSelect:
		id, ok := s.parseId(frame.Id)
		if !ok {
			return
		}
		s.report(s.ctrl.Select(id))

	case dto.EditorFrameEdit:
		id, ok := s.parseId(frame.Id)
		if !ok {
			return
		}
		field, err := editor.ParseField(frame.Field)
		if err != nil {
			s.writeError("field must be title or content")
			return
		}
		s.report(s.ctrl.Edit(id, field, frame.Value))

	case dto.EditorFrameCreate:
		s.async(func() error {
			_, err := s.ctrl.Create(s.ctx)
			return err
		})

	case dto.EditorFrameDelete:
		id, ok := s.parseId(frame.Id)
		if !ok {
			return
		}
		s.async(func() error {
			_, err := s.ctrl.Delete(s.ctx, id)
			return err
		})

	case dto.EditorFrameSearch:
		s.ctrl.SearchInput(frame.Query)

	case dto.EditorFrameSearchNow:
		query := frame.Query
		s.async(func() error { return s.ctrl.Search(s.ctx, query) })

	case dto.EditorFrameFlush:
		s.ctrl.Flush()

	case dto.EditorFrameConfirmReply:
		s.resolveConfirm(frame.RequestId, frame.Confirmed)

	default:
		s.writeError("unknown frame type: " + frame.Type)
	}
}

func (s *editorSession) async(op func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.report(op())
	}()
}

// report sends controller refusals back as error frames. Store failures were already
// delivered as notifications by the controller.
func (s *editorSession) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, editor.ErrNoteNotFound),
		errors.Is(err, editor.ErrSaveInProgress),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrClosed):
		s.writeError(err.Error())
	}
}

func (s *editorSession) parseId(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError("invalid note id")
		return uuid.Nil, false
	}
	return id, true
}

// Notify implements editor.Notifier.
func (s *editorSession) Notify(level editor.Level, message string) {
	s.write(dto.EditorFrameNotification, dto.EditorNotificationResponse{Level: string(level), Message: message})
}

// Confirm implements editor.Confirmer over a confirm / confirm_reply exchange.
func (s *editorSession) Confirm(ctx context.Context, prompt string) (bool, error) {
	requestId := uuid.NewString()
	reply := make(chan bool, 1)

	s.mu.Lock()
	s.confirms[requestId] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.confirms, requestId)
		s.mu.Unlock()
	}()

	if !s.write(dto.EditorFrameConfirm, dto.EditorConfirmRequest{RequestId: requestId, Prompt: prompt}) {
		return false, errors.New("session is not connected")
	}

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *editorSession) resolveConfirm(requestId string, confirmed bool) {
	s.mu.Lock()
	reply, ok := s.confirms[requestId]
	s.mu.Unlock()
	if !ok {
		s.writeError("no pending confirmation " + requestId)
		return
	}
	select {
	case reply <- confirmed:
	default:
	}
}

func (s *editorSession) pushState(snap editor.Snapshot) {
	state := dto.EditorStateResponse{
		Notes:   s.mapper.ToResponses(snap.Notes),
		Query:   snap.Query,
		Loading: snap.Loading,
		Saving:  snap.Saving,
	}
	if snap.ActiveId != uuid.Nil {
		id := snap.ActiveId
		state.ActiveId = &id
	}
	s.write(dto.EditorFrameState, state)
}

func (s *editorSession) writeError(message string) {
	s.write(dto.EditorFrameError, dto.EditorErrorResponse{Message: message})
}

func (s *editorSession) write(frameType string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("EditorHandler", "Failed to encode frame", map[string]interface{}{"type": frameType, "error": err})
		return false
	}
	frame, err := json.Marshal(dto.EditorOutboundFrame{Type: frameType, Data: data})
	if err != nil {
		return false
	}
	return s.send(frame)
}

// close releases waiting confirmations, lets running operations finish, then flushes
// pending edits.
func (s *editorSession) close() {
	s.cancel()
	s.wg.Wait()
	s.ctrl.Close()
}
