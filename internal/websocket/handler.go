package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs one session on conn until the peer goes away or the hub shuts down.
// It blocks on the read loop in the calling (handler) goroutine.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID uuid.UUID, onMessage func([]byte)) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBuffer),
		OnMessage: onMessage,
	}
	if !hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
