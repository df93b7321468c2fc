package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/shootplanner/internal/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   4096,
	WriteBufferSize:  4096,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return r.Header.Get("Sec-WebSocket-Version") != ""
		}

		allowed := config.AppConfig.Server.AllowedOrigins
		if allowed == "" || allowed == "*" {
			return true
		}
		for _, candidate := range strings.Split(allowed, ",") {
			if strings.TrimSpace(candidate) == origin {
				return true
			}
		}

		log.Printf("Rejected WebSocket connection from origin: %s", origin)
		return false
	},
}

// ClientMessage represents a message from a client
type ClientMessage struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId,omitempty"`
}

// ServerMessage represents a message to a client
type ServerMessage struct {
	Type      string      `json:"type"`
	TaskID    string      `json:"taskId,omitempty"`
	Content   interface{} `json:"content,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Client represents a connected websocket client
type Client struct {
	conn     *websocket.Conn
	send     chan ServerMessage
	clientID string
	tasks    []string
	hub      *WebSocketHub
	closeMu  sync.Mutex
	isClosed bool
}

// WebSocketHub fans provisioning task updates out to connected clients.
// Clients subscribe to the task ids they care about; untargeted messages go
// to everyone.
type WebSocketHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan ServerMessage

	tasks map[string][]string // taskID -> clientIDs

	mu         sync.RWMutex
	shutdown   chan struct{}
	isShutdown bool
}

// NewWebSocketHub creates a new websocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ServerMessage, 64),
		tasks:      make(map[string][]string),
		shutdown:   make(chan struct{}),
	}
}

// Run runs the websocket hub in a goroutine
func (h *WebSocketHub) Run() {
	go func() {
		for {
			select {
			case <-h.shutdown:
				h.mu.Lock()
				for _, client := range h.clients {
					client.close()
				}
				h.mu.Unlock()
				return

			case client := <-h.register:
				h.mu.Lock()
				h.clients[client.clientID] = client
				h.mu.Unlock()

			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client.clientID]; ok {
					delete(h.clients, client.clientID)
					close(client.send)
					for _, taskID := range client.tasks {
						h.removeSubscriberLocked(taskID, client.clientID)
					}
				}
				h.mu.Unlock()

			case message := <-h.broadcast:
				if message.Timestamp == 0 {
					message.Timestamp = time.Now().UnixMilli()
				}
				h.deliver(message)
			}
		}
	}()
}

func (h *WebSocketHub) deliver(message ServerMessage) {
	h.mu.RLock()
	var targets []*Client
	if message.TaskID != "" {
		for _, clientID := range h.tasks[message.TaskID] {
			if client, ok := h.clients[clientID]; ok {
				targets = append(targets, client)
			}
		}
	} else {
		for _, client := range h.clients {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- message:
		default:
			// Slow client; drop the message rather than block the hub
			log.Printf("Dropping message for slow client %s", client.clientID)
		}
	}
}

func (h *WebSocketHub) removeSubscriberLocked(taskID, clientID string) {
	subscribers := h.tasks[taskID]
	remaining := subscribers[:0]
	for _, id := range subscribers {
		if id != clientID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) > 0 {
		h.tasks[taskID] = remaining
	} else {
		delete(h.tasks, taskID)
	}
}

// Subscribe subscribes a client to updates for a specific task
func (h *WebSocketHub) Subscribe(clientID, taskID string) {
	if taskID == "" || clientID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range h.tasks[taskID] {
		if id == clientID {
			return
		}
	}
	h.tasks[taskID] = append(h.tasks[taskID], clientID)

	if client, ok := h.clients[clientID]; ok {
		client.tasks = append(client.tasks, taskID)
	}
}

// Unsubscribe unsubscribes a client from updates for a specific task
func (h *WebSocketHub) Unsubscribe(clientID, taskID string) {
	if taskID == "" || clientID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeSubscriberLocked(taskID, clientID)
	if client, ok := h.clients[clientID]; ok {
		remaining := client.tasks[:0]
		for _, id := range client.tasks {
			if id != taskID {
				remaining = append(remaining, id)
			}
		}
		client.tasks = remaining
	}
}

// SendTaskUpdate sends an update about a specific task
func (h *WebSocketHub) SendTaskUpdate(taskID string, updateType string, content interface{}) {
	if taskID == "" || updateType == "" {
		return
	}

	select {
	case h.broadcast <- ServerMessage{
		Type:      updateType,
		TaskID:    taskID,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}:
	case <-h.shutdown:
	}
}

// Shutdown gracefully shuts down the hub
func (h *WebSocketHub) Shutdown() {
	h.mu.Lock()
	if !h.isShutdown {
		h.isShutdown = true
		close(h.shutdown)
	}
	h.mu.Unlock()
}

// ServeWs handles websocket requests from clients
func ServeWs(hub *WebSocketHub, w http.ResponseWriter, r *http.Request) {
	hub.mu.RLock()
	stopping := hub.isShutdown
	hub.mu.RUnlock()
	if stopping {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan ServerMessage, 64),
		clientID: r.RemoteAddr + "-" + time.Now().Format("150405.000000"),
		hub:      hub,
	}

	hub.register <- client

	go client.readPump()
	go client.writePump()
}

func (c *Client) close() {
	c.closeMu.Lock()
	if !c.isClosed {
		c.conn.Close()
		c.isClosed = true
	}
	c.closeMu.Unlock()
}

// readPump pumps messages from the websocket to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.shutdown:
		}
		c.close()
	}()

	c.conn.SetReadLimit(32 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.send <- ServerMessage{
				Type:      "error",
				Content:   map[string]string{"error": "Invalid message format"},
				Timestamp: time.Now().UnixMilli(),
			}
			continue
		}

		switch clientMsg.Type {
		case "subscribe":
			c.hub.Subscribe(c.clientID, clientMsg.TaskID)
			c.send <- ServerMessage{
				Type:      "subscribed",
				TaskID:    clientMsg.TaskID,
				Timestamp: time.Now().UnixMilli(),
			}

		case "unsubscribe":
			c.hub.Unsubscribe(c.clientID, clientMsg.TaskID)
			c.send <- ServerMessage{
				Type:      "unsubscribed",
				TaskID:    clientMsg.TaskID,
				Timestamp: time.Now().UnixMilli(),
			}

		case "ping":
			c.send <- ServerMessage{
				Type:      "pong",
				Timestamp: time.Now().UnixMilli(),
			}

		default:
			c.send <- ServerMessage{
				Type:      "error",
				Content:   map[string]string{"error": "Unknown message type"},
				Timestamp: time.Now().UnixMilli(),
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
