package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/routekit/pkg/middleware"
	"github.com/vango-dev/routekit/pkg/router"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	// Outbound.
	TypeNavigation MessageType = "navigation"
	TypeError      MessageType = "error"

	// Inbound.
	TypeTransitionEnd MessageType = "transitionend"
	TypeNavigate      MessageType = "navigate"
	TypeBack          MessageType = "back"
	TypeForward       MessageType = "forward"
)

// Message is exchanged with websocket clients.
type Message struct {
	Type    MessageType    `json:"type"`
	Status  string         `json:"status,omitempty"`
	Route   *router.Route  `json:"route,omitempty"`
	From    string         `json:"from,omitempty"`
	Error   string         `json:"error,omitempty"`
	Target  string         `json:"target,omitempty"`
	URL     string         `json:"url,omitempty"`
	Replace bool           `json:"replace,omitempty"`
	Query   map[string]any `json:"query,omitempty"`
}

// Hub manages websocket clients.
type Hub struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	handle   func(conn *websocket.Conn, msg Message)
	logger   *slog.Logger
}

// NewHub creates a hub. handle receives every inbound message.
func NewHub(logger *slog.Logger, handle func(conn *websocket.Conn, msg Message)) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
		handle: handle,
		logger: logger,
	}
}

// HandleWebSocket upgrades the connection and reads until the client
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		middleware.RecordWebSocketError("upgrade")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	middleware.RecordWebSocketConnect()
	h.logger.Debug("websocket client connected", "remote", req.RemoteAddr)

	defer h.remove(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				middleware.RecordWebSocketError("read")
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			middleware.RecordWebSocketError("decode")
			h.Send(conn, Message{Type: TypeError, Error: "invalid message: " + err.Error()})
			continue
		}
		if h.handle != nil {
			h.handle(conn, msg)
		}
	}
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("websocket encode failed", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.write(client, data)
	}
}

// Send sends msg to one client.
func (h *Hub) Send(conn *websocket.Conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("websocket encode failed", "error", err)
		return
	}
	h.write(conn, data)
}

func (h *Hub) write(conn *websocket.Conn, data []byte) {
	h.mu.RLock()
	lock, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	// gorilla connections allow one concurrent writer.
	lock.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	lock.Unlock()
	if err != nil {
		middleware.RecordWebSocketError("write")
		h.remove(conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		middleware.RecordWebSocketDisconnect()
		conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()

	for client := range clients {
		middleware.RecordWebSocketDisconnect()
		client.Close()
	}
}
