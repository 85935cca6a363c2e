package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
	registryWait   = 5 * time.Second
)

// Client is one websocket connection held by the hub.
type Client struct {
	ID     string
	UserID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub holds the websocket connections of this process, keyed by connection id.
type Hub struct {
	registry Registry
	metrics  *observability.Metrics

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(registry Registry, metrics *observability.Metrics) *Hub {
	return &Hub{
		registry: registry,
		metrics:  metrics,
		clients:  make(map[string]*Client),
	}
}

// Serve takes ownership of conn for the authenticated userID and blocks until
// the connection closes. The connection stays unattached until the client
// announces itself with an "online" event.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.register(c)

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.metrics.ConnectionOpened()
	logger.Debug("Websocket connected", zap.String("conn_id", c.ID), zap.String("user_id", c.UserID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
	h.mu.Unlock()
	h.metrics.ConnectionClosed()

	ctx, cancel := context.WithTimeout(context.Background(), registryWait)
	defer cancel()
	if err := h.registry.Detach(ctx, c.ID); err != nil {
		logger.Warn("Failed to detach connection", zap.String("conn_id", c.ID), zap.Error(err))
	}
	logger.Debug("Websocket disconnected", zap.String("conn_id", c.ID), zap.String("user_id", c.UserID))
}

// Push queues an event on connID without blocking. It reports false when the
// connection is not held by this hub or its buffer is full.
func (h *Hub) Push(connID, event string, payload any) bool {
	data, err := json.Marshal(models.Event{Event: event, Data: payload})
	if err != nil {
		logger.Error("Failed to encode websocket event", zap.String("event", event), zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		logger.Warn("Websocket send buffer full", zap.String("conn_id", connID))
		return false
	}
}

// Len returns the number of connections held.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Their read pumps unregister them.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		_ = c.conn.Close()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read error", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}

		var msg models.Event
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Event == models.EventOnline {
			c.online()
		}
	}
}

// online attaches the connection to its authenticated user. A user id sent by
// the client is never trusted.
func (c *Client) online() {
	ctx, cancel := context.WithTimeout(context.Background(), registryWait)
	defer cancel()
	if err := c.hub.registry.Attach(ctx, c.UserID, c.ID); err != nil {
		logger.Warn("Failed to attach connection", zap.String("conn_id", c.ID), zap.String("user_id", c.UserID), zap.Error(err))
		return
	}
	c.hub.Push(c.ID, models.EventOnline, map[string]string{"connection_id": c.ID})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
