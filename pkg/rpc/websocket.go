package rpc

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/harlanhai/blockchain-server/pkg/core"
)

// Hub fans newly mined blocks out to websocket subscribers. Each
// connection gets a buffered send queue; a subscriber that stops
// draining its queue is dropped rather than blocking the broadcast.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*wsConn]struct{}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte
}

// BlockEvent is the message pushed for every mined block.
type BlockEvent struct {
	Type  string      `json:"type"`
	Block *core.Block `json:"block"`
}

// NewHub creates an empty subscriber hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*wsConn]struct{}),
	}
}

// HandleWS upgrades an HTTP request to a websocket subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}

	c := &wsConn{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast sends a block event to every live subscriber.
func (h *Hub) Broadcast(block *core.Block) {
	payload, err := json.Marshal(BlockEvent{Type: "block", Block: block})
	if err != nil {
		logrus.WithError(err).Error("encode block event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		select {
		case c.send <- payload:
		default:
			// Slow subscriber; drop it on the next write cycle.
			go h.remove(c)
		}
	}
}

func (h *Hub) writeLoop(c *wsConn) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop drains control frames and detects closed connections.
func (h *Hub) readLoop(c *wsConn) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *wsConn) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
}
