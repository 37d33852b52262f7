package events

import (
	"sync"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Event types pushed to connected clients.
const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskCompleted = "task.completed"
	TaskDeleted   = "task.deleted"
)

type Event struct {
	Type   string       `json:"type"`
	Task   *domain.Task `json:"task,omitempty"`
	TaskID string       `json:"taskId,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans task events out to the owner's open connections. The feed is
// one-way; inbound frames are read only to service pings and detect close.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[int64]map[*client]struct{})}
}

// Publish queues ev for every open connection of the given user. A client
// that cannot keep up has the event dropped rather than blocking the
// request that produced it.
func (h *Hub) Publish(userID int64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		select {
		case c.send <- ev:
		default:
			logger.Warn("event dropped for slow client", "user_id", userID, "type", ev.Type)
		}
	}
}

func (h *Hub) register(userID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*client]struct{})
	}
	h.conns[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Serve pumps events to conn until the peer goes away. It blocks, so call
// it from the request handler.
func (h *Hub) Serve(userID int64, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan Event, 16)}
	h.register(userID, c)

	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()

	// read pump: pong handling and close detection only
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(userID, c)
	close(c.send)
	<-done
	_ = conn.Close()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
