package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/internal/metrics"
)

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxReadBytes   = 4096
)

// streamEvent is the frame pushed to /api/stream clients.
type streamEvent struct {
	Message chat.Message `json:"message"`
}

// StreamClient is a websocket connection subscribed to new messages.
type StreamClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans newly appended messages out to connected stream clients.
// Clients whose buffer is full are dropped rather than blocking the poster.
type Hub struct {
	mu      sync.Mutex
	clients map[*StreamClient]struct{}
	closed  bool
	logger  zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*StreamClient]struct{}),
		logger:  logger,
	}
}

// NewClient wraps conn for registration with the hub.
func (h *Hub) NewClient(conn *websocket.Conn) *StreamClient {
	return &StreamClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Register adds a client. It reports false once the hub is closed.
func (h *Hub) Register(c *StreamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}
	metrics.StreamClients.Inc()
	return true
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *StreamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *StreamClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.StreamClients.Dec()
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg chat.Message) {
	data, err := json.Marshal(streamEvent{Message: msg})
	if err != nil {
		h.logger.Error().Err(err).Int64("id", msg.ID).Msg("failed to marshal stream event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn().Str("remote_addr", c.conn.RemoteAddr().String()).Msg("stream client too slow, dropping")
			h.removeLocked(c)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// readPump discards client frames and keeps the read deadline fresh. It
// returns when the connection fails or the peer closes it.
func (c *StreamClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("stream read failed")
			}
			return
		}
	}
}

// writePump delivers queued frames and pings. A closed send channel means the
// hub dropped the client; the peer gets a close frame.
func (c *StreamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
