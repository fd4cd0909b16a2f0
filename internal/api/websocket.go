package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocketClient represents a connected WebSocket client
type WebSocketClient struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan WebSocketMessage
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// WebSocketHub maintains the set of active clients and broadcasts messages
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient

	mu             sync.RWMutex
	running        bool
	stopCh         chan struct{}
	apiKey         string
	allowedOrigins []string
	logger         *slog.Logger
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		stopCh:     make(chan struct{}),
		logger:     slog.Default(),
	}
}

// SetSecurityConfig sets the API key clients must present and the origins
// allowed to connect
func (h *WebSocketHub) SetSecurityConfig(apiKey string, allowedOrigins []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.apiKey = apiKey
	h.allowedOrigins = allowedOrigins
}

// SetLogger sets the hub's logger
func (h *WebSocketHub) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

// Run starts the hub's main loop
func (h *WebSocketHub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case <-h.stopCh:
			h.mu.Lock()
			h.running = false
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it
					go h.drop(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *WebSocketHub) drop(c *WebSocketClient) {
	select {
	case h.unregister <- c:
	case <-h.stopCh:
	}
}

// Stop stops the hub
func (h *WebSocketHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.running = false
		close(h.stopCh)
	}
}

// IsRunning reports whether the hub loop is active
func (h *WebSocketHub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Broadcast sends a message to all connected clients. Messages are dropped
// while the hub is not running or its queue is full.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	if !h.IsRunning() {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// Publish broadcasts an event with the current time
func (h *WebSocketHub) Publish(eventType string, data any) {
	h.Broadcast(WebSocketMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWs handles WebSocket requests from clients. Browsers cannot set
// headers on a WebSocket handshake, so the key may also come as ?api_key=.
func (h *WebSocketHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	apiKey := h.apiKey
	origins := originHostPatterns(h.allowedOrigins)
	logger := h.logger
	h.mu.RUnlock()

	if apiKey != "" && requestAPIKey(r) != apiKey {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if !h.IsRunning() {
		http.Error(w, `{"error": "websocket hub not running"}`, http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		logger.Warn("websocket accept failed", "error", err)
		return
	}

	client := &WebSocketClient{
		hub:  h,
		conn: conn,
		send: make(chan WebSocketMessage, 64),
		done: make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.stopCh:
		conn.Close(websocket.StatusGoingAway, "server stopping")
		return
	}

	go client.writePump(logger)
	client.readPump(r.Context(), logger)
}

// readPump reads messages from the WebSocket connection
func (c *WebSocketClient) readPump(ctx context.Context, logger *slog.Logger) {
	defer c.hub.drop(c)

	for {
		var msg map[string]interface{}
		err := wsjson.Read(ctx, c.conn, &msg)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		if msgType, ok := msg["type"].(string); ok {
			c.handleMessage(msgType)
		}
	}
}

// writePump sends messages to the WebSocket connection
func (c *WebSocketClient) writePump(logger *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			ctx, cancel := newWriteContext()
			err := wsjson.Write(ctx, c.conn, message)
			cancel()

			if err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := newWriteContext()
			err := c.conn.Ping(ctx)
			cancel()

			if err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming client messages
func (c *WebSocketClient) handleMessage(msgType string) {
	switch msgType {
	case "ping":
		select {
		case c.send <- WebSocketMessage{Type: "pong", Timestamp: time.Now()}:
		default:
		}
	}
}

// close closes the client connection once
func (c *WebSocketClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.done)
	c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// newWriteContext creates a context with timeout for writes
func newWriteContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// requestAPIKey extracts the key from X-API-Key, a Bearer token or ?api_key=
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("api_key")
}

// originHostPatterns converts CORS origins ("http://localhost:*") to the
// host patterns websocket.Accept matches against ("localhost:*")
func originHostPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		if origin != "" {
			patterns = append(patterns, strings.TrimSuffix(origin, "/"))
		}
	}
	return patterns
}

// MarshalJSON implements json.Marshaler for WebSocketMessage
func (m WebSocketMessage) MarshalJSON() ([]byte, error) {
	type Alias WebSocketMessage
	return json.Marshal(&struct {
		Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     Alias(m),
		Timestamp: m.Timestamp.Format(time.RFC3339),
	})
}
