// Package progress streams generation progress to connected operator
// clients over WebSocket.
package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one progress update of a generation run.
type Event struct {
	Type     string         `json:"type"`
	Resource string         `json:"resource,omitempty"`
	RunID    string         `json:"run_id,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
	At       time.Time      `json:"at"`
}

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends the event to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}
