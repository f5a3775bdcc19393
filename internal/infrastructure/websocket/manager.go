package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lapakda/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// Client is one WebSocket connection. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool
	subs   map[string]func()
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, sendBuffer),
		subs:   make(map[string]func()),
	}
}

// Push queues msg for the writer. It drops the frame when the client is
// gone or its buffer is full.
func (c *Client) Push(msg WSMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame: %v", msg.Type, err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		logger.Warn("WebSocket: send buffer full for user %s, dropping %s", c.UserID, msg.Type)
		return false
	}
}

// Hold registers stop under key, releasing whatever was held there before.
func (c *Client) Hold(key string, stop func()) {
	c.mu.Lock()
	prev := c.subs[key]
	if c.closed {
		c.mu.Unlock()
		stop()
		return
	}
	c.subs[key] = stop
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Release stops the subscription held under key, if any.
func (c *Client) Release(key string) {
	c.mu.Lock()
	stop := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Holding reports whether a subscription is held under key.
func (c *Client) Holding(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[key]
	return ok
}

func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = map[string]func(){}
	close(c.send)
	c.mu.Unlock()

	for _, stop := range subs {
		stop()
	}
}

// MessageHandler handles a decoded client frame.
type MessageHandler func(ctx context.Context, c *Client, msg IncomingMessage)

// ConnectHandler runs once a client is registered.
type ConnectHandler func(ctx context.Context, c *Client)

type Manager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex

	onMessage MessageHandler
	onConnect ConnectHandler
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Handle installs the frame and connect callbacks. Call before Run.
func (m *Manager) Handle(onConnect ConnectHandler, onMessage MessageHandler) {
	m.onConnect = onConnect
	m.onMessage = onMessage
}

// Run processes registrations until ctx ends, then closes every client.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			if m.clients[client.UserID] == nil {
				m.clients[client.UserID] = make(map[*Client]struct{})
			}
			m.clients[client.UserID][client] = struct{}{}
			m.mutex.Unlock()
			logger.Debug("WebSocket: client registered for user %s", client.UserID)

		case client := <-m.unregister:
			m.remove(client)
			logger.Debug("WebSocket: client unregistered for user %s", client.UserID)

		case <-ctx.Done():
			m.mutex.Lock()
			all := m.clients
			m.clients = make(map[string]map[*Client]struct{})
			m.mutex.Unlock()
			for _, set := range all {
				for c := range set {
					c.shutdown()
				}
			}
			return nil
		}
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	if set, ok := m.clients[client.UserID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.clients, client.UserID)
		}
	}
	m.mutex.Unlock()
	client.shutdown()
}

// SendToUser pushes msg to every connection of userID and reports how many
// accepted it.
func (m *Manager) SendToUser(userID string, msg WSMessage) int {
	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for c := range m.clients[userID] {
		targets = append(targets, c)
	}
	m.mutex.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.Push(msg) {
			sent++
		}
	}
	return sent
}

func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// Serve registers client and pumps it until the connection drops or ctx
// ends. It blocks.
func (m *Manager) Serve(ctx context.Context, client *Client) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	select {
	case m.register <- client:
	case <-m.done:
		client.Conn.Close()
		return
	case <-ctx.Done():
		client.Conn.Close()
		return
	}

	go client.writePump()

	if m.onConnect != nil {
		m.onConnect(ctx, client)
	}
	client.readPump(ctx, m.onMessage)

	select {
	case m.unregister <- client:
	case <-m.done:
		m.remove(client)
	}
}

func (c *Client) readPump(ctx context.Context, onMessage MessageHandler) {
	defer c.Conn.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket: read error for user %s: %v", c.UserID, err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Push(ErrorMessage("Invalid message format"))
			continue
		}

		if msg.Type == TypePing {
			c.Push(NewMessage(TypePong, "", map[string]string{"status": "alive"}))
			continue
		}
		if onMessage == nil {
			c.Push(ErrorMessage("Unknown message type"))
			continue
		}
		onMessage(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("WebSocket: write error for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
