package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "flips"}))

	// a assinatura é processada pela goroutine de leitura; espera ela valer
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["flips"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(FlipUpdate{Topic: "flips", Payload: map[string]string{"type": "flip_created"}})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got FlipUpdate
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "flips", got.Topic)
}

func TestHubBroadcastSkipsOtherTopics(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "alice"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["alice"]) == 1
	}, time.Second, 10*time.Millisecond)

	// ninguém assina "flips": não deve chegar nada no cliente
	hub.Broadcast(FlipUpdate{Topic: "flips", Payload: "x"})

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var got FlipUpdate
	err := conn.ReadJSON(&got)
	require.Error(t, err)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "flips"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["flips"]) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "unsubscribe", Topic: "flips"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["flips"]) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHubPing(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got map[string]string
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "pong", got["type"])
}

func TestHubDropsConnOnDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "flips"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["flips"]) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["flips"]) == 0
	}, time.Second, 10*time.Millisecond)
}
