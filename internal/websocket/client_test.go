package websocket

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConstants(t *testing.T) {
	assert.Equal(t, 10*time.Second, writeWait)
	assert.Equal(t, 60*time.Second, pongWait)
	assert.Equal(t, (pongWait*9)/10, pingPeriod)
	assert.Equal(t, 512, maxMessageSize)
}

func TestNewClientWithConnection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	conn := NewMockConnection()
	conn.RemoteAddress = "192.168.1.5:54321"

	client := NewClientWithConnection(hub, conn, logger)

	require.NotNil(t, client)
	assert.NotEmpty(t, client.id)
	assert.Equal(t, "192.168.1.5:54321", client.remoteAddr)
	assert.NotNil(t, client.send)
	assert.Equal(t, hub, client.hub)
	assert.False(t, client.connectedAt.IsZero())
}

func TestClientReadPump_UnregistersOnReadError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, logger)

	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, hub.ClientCount())

	// No queued messages, so the first read errors and the pump exits
	client.ReadPump()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, conn.Closed)
	assert.Equal(t, int64(maxMessageSize), conn.ReadLimit)
	assert.False(t, conn.ReadDeadline.IsZero())
}

func TestClientReadPump_CountsHeartbeats(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	conn.AddReadMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)
	conn.AddReadMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)

	client := NewClientWithConnection(hub, conn, logger)
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)

	client.ReadPump()

	assert.Equal(t, int64(2), client.messagesReceived)
}

func TestClientWritePump_WritesTextFrames(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, logger)

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte(`{"type":"treatment:status"}`)
	time.Sleep(50 * time.Millisecond)

	// Closing the channel makes the pump send a close frame and exit
	close(client.send)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for write pump to stop")
	}

	msgs := conn.GetWrittenMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, websocket.TextMessage, msgs[0].Type)
	assert.Equal(t, `{"type":"treatment:status"}`, string(msgs[0].Data))
	assert.Equal(t, websocket.CloseMessage, msgs[1].Type)
	assert.Equal(t, int64(1), client.messagesSent)
}

func TestClientWritePump_StopsOnWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(logger)
	conn := NewMockConnection()
	conn.WriteMessageFunc = func(messageType int, data []byte) error {
		return assert.AnError
	}
	client := NewClientWithConnection(hub, conn, logger)

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte(`{"type":"treatment:status"}`)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for write pump to stop on error")
	}

	assert.Equal(t, int64(0), client.messagesSent)
}
