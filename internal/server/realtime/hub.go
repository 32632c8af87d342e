// Package realtime fans note change events out to the owner's live WebSocket
// connections.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/offnote/offnote/internal/server/notes"
	"github.com/offnote/offnote/pkg/logging"
)

// sendBuffer bounds the per-client outbound queue. A client that cannot keep
// up loses events and recovers via its next reconciliation, it must not stall
// the hub.
const sendBuffer = 64

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients per user and implements
// notes.EventPublisher. Events go only to the owning user's connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     logging.Logger
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log.With("component", "realtime"),
	}
}

var _ notes.EventPublisher = (*Hub)(nil)

// NoteUpserted implements notes.EventPublisher.
func (h *Hub) NoteUpserted(userID string, n notes.Note, created bool) {
	typ := notes.EventUpdate
	if created {
		typ = notes.EventInsert
	}
	record := notes.ToWire(n)
	h.publish(userID, notes.ChangeEvent{Type: typ, Record: &record})
}

// NoteDeleted implements notes.EventPublisher.
func (h *Hub) NoteDeleted(userID, noteID string) {
	h.publish(userID, notes.ChangeEvent{Type: notes.EventDelete, ID: noteID})
}

func (h *Hub) publish(userID string, ev notes.ChangeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error(context.Background(), "failed to encode change event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			h.log.Warn(context.Background(), "dropping event for slow client", "user", userID)
		}
	}
}

// ConnCount reports the number of live connections for a user.
func (h *Hub) ConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve owns conn until the peer disconnects: it registers the connection
// under userID, pumps queued events to it, and discards inbound frames (the
// feed is one-way). Call it from the fiber websocket handler.
func (h *Hub) Serve(userID string, conn *websocket.Conn) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// The read loop exists to detect disconnects; inbound data is ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[c.userID], c)
	if len(h.clients[c.userID]) == 0 {
		delete(h.clients, c.userID)
	}
	_ = c.conn.Close()
}
