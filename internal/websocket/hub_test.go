package websocket

import (
	"context"
	"testing"
	"time"

	"notes-sync-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(hub *Hub, buffer int) *Client {
	return &Client{Hub: hub, SessionID: uuid.New(), Send: make(chan []byte, buffer)}
}

func TestHubRoutesBySession(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a, b := newClient(hub, 4), newClient(hub, 4)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	assert.True(t, hub.Send(a.SessionID, []byte(`{"type":"state"}`)))
	assert.Equal(t, `{"type":"state"}`, string(<-a.Send))
	assert.Len(t, b.Send, 0)

	assert.False(t, hub.Send(uuid.New(), []byte("x")), "unknown session")

	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open, "unregister closes the outbound channel")

	hub.Unregister(a)
	assert.Equal(t, 1, hub.Count(), "second unregister is harmless")
}

func TestHubDropsSlowSession(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := newClient(hub, 1)
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, hub.Send(slow.SessionID, []byte("1")))
	assert.False(t, hub.Send(slow.SessionID, []byte("2")))
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesSessions(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := newClient(hub, 1)
	require.True(t, hub.Register(c))
	cancel()
	<-done

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.Count())
	assert.False(t, hub.Register(newClient(hub, 1)), "stopped hub refuses sessions")
}
