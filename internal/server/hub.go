package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/coinboard/coinboard/internal/currency"
)

// Hub fans snapshot updates out to connected websocket clients. Writes go
// through per-connection goroutines so one slow client cannot stall a
// refresh; a client whose buffer fills is dropped.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]chan []currency.Detail
}

// sendBuffer is the per-client queue of pending snapshots.
const sendBuffer = 4

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]chan []currency.Detail)}
}

// Register adds conn and starts its writer. The writer owns the connection
// and closes it when the send channel is closed or a write fails.
func (h *Hub) Register(conn *websocket.Conn) {
	send := make(chan []currency.Detail, sendBuffer)

	h.mu.Lock()
	h.conns[conn] = send
	h.mu.Unlock()

	go func() {
		defer conn.Close()
		for rows := range send {
			if err := conn.WriteJSON(listingResponse(rows)); err != nil {
				h.Unregister(conn)
				return
			}
		}
	}()
}

// Unregister removes conn and closes its send channel.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.conns[conn]
	if ok {
		delete(h.conns, conn)
	}
	h.mu.Unlock()

	if ok {
		close(send)
	}
}

// Send queues rows to a single client. All writes go through the client's
// writer goroutine, so Send is safe alongside Broadcast.
func (h *Hub) Send(conn *websocket.Conn, rows []currency.Detail) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Channels are closed only after removal from the map, so a channel
	// found here under mu cannot be closed mid-send.
	if send, ok := h.conns[conn]; ok {
		select {
		case send <- rows:
		default:
		}
	}
}

// Broadcast queues rows to every connected client, dropping clients that
// cannot keep up.
func (h *Hub) Broadcast(rows []currency.Detail) {
	h.mu.Lock()
	var stalled []*websocket.Conn
	for conn, send := range h.conns {
		select {
		case send <- rows:
		default:
			stalled = append(stalled, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stalled {
		h.Unregister(conn)
	}
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.Unregister(conn)
	}
}
