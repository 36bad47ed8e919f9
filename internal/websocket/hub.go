package websocket

import (
	"context"
	"sync"

	"notes-sync-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks live editor sessions. Registration goes through Run so the session map has a
// single writer; Send only needs the read lock.
type Hub struct {
	// Registered clients, one per editor session.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	// Closed once Run has returned and every client has been released.
	stopped chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		logger:     log,
	}
}

// Run serves registrations until ctx ends, then closes every session's outbound channel so
// the write pumps send a close frame.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Session registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.SessionID]; ok && current == client {
				delete(h.clients, client.SessionID)
				close(client.Send)
				h.logger.Info("Hub", "Session unregistered", map[string]interface{}{"session_id": client.SessionID})
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "All sessions closed", nil)
			return
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Send queues one frame for a session without blocking. A session whose buffer is full is
// dropped: its client cannot keep up with its own state stream.
func (h *Hub) Send(sessionID uuid.UUID, data []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	select {
	case client.Send <- data:
		h.mu.RUnlock()
		return true
	default:
		h.mu.RUnlock()
	}

	h.logger.Warn("Hub", "Session send buffer full, dropping session", map[string]interface{}{"session_id": sessionID})
	go h.Unregister(client)
	return false
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
