package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, m *Manager) (*httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = m.Run(ctx) }()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Serve(r.Context(), NewClient(r.URL.Query().Get("uid"), conn))
	}))
	return srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestPingPong(t *testing.T) {
	m := NewManager()
	srv, cancel := startServer(t, m)
	defer cancel()
	defer srv.Close()

	conn := dial(t, srv, "u1")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypePing}))
	assert.Equal(t, TypePong, readFrame(t, conn).Type)
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	m := NewManager()
	srv, cancel := startServer(t, m)
	defer cancel()
	defer srv.Close()

	a := dial(t, srv, "u1")
	defer a.Close()
	b := dial(t, srv, "u1")
	defer b.Close()

	require.Eventually(t, func() bool {
		m.mutex.RLock()
		defer m.mutex.RUnlock()
		return len(m.clients["u1"]) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, m.SendToUser("u1", NewMessage(TypeUnreadCount, "", map[string]int{"count": 1})))
	assert.Equal(t, TypeUnreadCount, readFrame(t, a).Type)
	assert.Equal(t, TypeUnreadCount, readFrame(t, b).Type)
	assert.Equal(t, 0, m.SendToUser("nobody", NewMessage(TypeUnreadCount, "", nil)))
}

func TestHandlersAndReleaseOnDisconnect(t *testing.T) {
	m := NewManager()
	released := make(chan string, 4)
	m.Handle(
		func(ctx context.Context, c *Client) {
			c.Hold("unread", func() { released <- "unread" })
		},
		func(ctx context.Context, c *Client, msg IncomingMessage) {
			c.Hold("room", func() { released <- "room:" + msg.ChatID })
			c.Push(NewMessage(TypeMessages, msg.ChatID, []string{}))
		},
	)
	srv, cancel := startServer(t, m)
	defer cancel()
	defer srv.Close()

	conn := dial(t, srv, "u1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeSubscribeRoom, "chat_id": "r1"}))
	assert.Equal(t, "r1", readFrame(t, conn).ChatID)

	// switching rooms releases the previous one
	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeSubscribeRoom, "chat_id": "r2"}))
	assert.Equal(t, "r2", readFrame(t, conn).ChatID)
	assert.Equal(t, "room:r1", <-released)

	conn.Close()
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case key := <-released:
			got[key] = true
		case <-time.After(2 * time.Second):
			t.Fatal("subscriptions not released on disconnect")
		}
	}
	assert.True(t, got["unread"])
	assert.True(t, got["room:r2"])
	assert.Eventually(t, func() bool { return !m.IsOnline("u1") }, 2*time.Second, 10*time.Millisecond)
}
