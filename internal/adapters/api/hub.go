package api

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
)

// Hub fan-outs every freshly indexed event to the connected websocket
// clients. Implements ports.EventSink, so the indexer can publish into it
// without knowing about websockets.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn // connection id → conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*websocket.Conn)}
}

// Publish broadcasts the event to every connected client. Dead connections
// are dropped on write failure.
func (h *Hub) Publish(event domain.PriceChangeEvent) {
	payload, err := json.Marshal(toEventJSON(event))
	if err != nil {
		slog.Warn("hub: marshal event", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("hub: dropping client", "client", id, "err", err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// add registers a connection and returns its id.
func (h *Hub) add(conn *websocket.Conn) string {
	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	return id
}

// remove unregisters and closes a connection.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	conn, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
