// Package ingest accepts remote capture clients over WebSocket. Clients
// push camera frames and browser context; the hub replies to each frame
// with the resulting tracking reading.
package ingest

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// ErrClientNotConnected is returned when sending to an unknown client
var ErrClientNotConnected = errors.New("ingest: client not connected")

// maxMessageSize bounds a single client message (base64 frames)
const maxMessageSize = 2 * 1024 * 1024

// FrameHandler processes a decoded JPEG frame. A non-nil reading is sent
// back to the client as a tracking message.
type FrameHandler func(clientID string, jpeg []byte) *protocol.TrackingData

// BrowserHandler receives an active tab report
type BrowserHandler func(clientID string, b *protocol.BrowserData)

// ClientConnection represents a connected capture client
type ClientConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the client
func (c *ClientConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from capture clients
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*ClientConnection
	logger  *slog.Logger

	onFrame   FrameHandler
	onBrowser BrowserHandler

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	frameErrors      atomic.Uint64
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*ClientConnection),
		logger:  log.Component("ingest"),
	}
}

// OnFrame sets the frame callback
func (h *Hub) OnFrame(fn FrameHandler) {
	h.mu.Lock()
	h.onFrame = fn
	h.mu.Unlock()
}

// OnBrowser sets the browser context callback
func (h *Hub) OnBrowser(fn BrowserHandler) {
	h.mu.Lock()
	h.onBrowser = fn
	h.mu.Unlock()
}

// RegisterRoutes mounts the client endpoint on a Fiber app
func (h *Hub) RegisterRoutes(app fiber.Router) {
	app.Use("/ws/client", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/client", websocket.New(h.handleClient))
	app.Get("/ws/client/:id", websocket.New(h.handleClient))
}

func (h *Hub) handleClient(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = generateClientID()
	}

	now := time.Now()
	client := &ClientConnection{
		ID:        id,
		Conn:      c,
		Connected: now,
		LastSeen:  now,
	}

	h.mu.Lock()
	if prev, ok := h.clients[id]; ok {
		// Reconnect under the same ID replaces the stale socket
		prev.Conn.Close()
	}
	h.clients[id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected", "client", id, "total", count)

	defer func() {
		h.mu.Lock()
		if h.clients[id] == client {
			delete(h.clients, id)
		}
		count := len(h.clients)
		h.mu.Unlock()
		h.logger.Info("client disconnected", "client", id, "total", count)
	}()

	c.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("client read ended", "client", id, "error", err)
			return
		}

		client.mu.Lock()
		client.LastSeen = time.Now()
		client.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(client, data)
	}
}

func (h *Hub) handleMessage(client *ClientConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		metrics.MessagesReceived.WithLabelValues("invalid").Inc()
		h.logger.Warn("parse error", "client", client.ID, "error", err)
		return
	}
	metrics.MessagesReceived.WithLabelValues(string(msg.Type)).Inc()

	h.mu.RLock()
	frameCb := h.onFrame
	browserCb := h.onBrowser
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeFrame:
		h.framesReceived.Add(1)
		if frameCb == nil {
			return
		}
		frame, err := msg.GetFrameData()
		if err != nil {
			h.frameErrors.Add(1)
			return
		}
		jpeg, err := frame.DecodeFrameData()
		if err != nil {
			h.frameErrors.Add(1)
			h.logger.Warn("bad frame", "client", client.ID, "frame", frame.FrameID, "error", err)
			return
		}
		if reading := frameCb(client.ID, jpeg); reading != nil {
			if err := h.sendTracking(client, *reading); err != nil {
				h.logger.Debug("tracking reply failed", "client", client.ID, "error", err)
			}
		}

	case protocol.TypeBrowser:
		if browserCb == nil {
			return
		}
		b, err := msg.GetBrowserData()
		if err == nil {
			browserCb(client.ID, b)
		}

	case protocol.TypePing:
		id := ""
		if ping, err := msg.GetPingData(); err == nil {
			id = ping.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			h.send(client, pong)
		}
	}
}

func (h *Hub) send(client *ClientConnection, msg *protocol.Message) error {
	h.messagesSent.Add(1)
	return client.Send(msg)
}

func (h *Hub) sendTracking(client *ClientConnection, data protocol.TrackingData) error {
	msg, err := protocol.NewTrackingMessage(data)
	if err != nil {
		return err
	}
	return h.send(client, msg)
}

// SendTracking pushes a tracking reading to one client
func (h *Hub) SendTracking(clientID string, data protocol.TrackingData) error {
	client := h.GetClient(clientID)
	if client == nil {
		return ErrClientNotConnected
	}
	return h.sendTracking(client, data)
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg *protocol.Message) {
	for _, client := range h.GetClients() {
		if err := h.send(client, msg); err != nil {
			h.logger.Debug("broadcast failed", "client", client.ID, "error", err)
		}
	}
}

// GetClient returns a connection by ID, nil when absent
func (h *Hub) GetClient(id string) *ClientConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// GetClients returns all connected clients
func (h *Hub) GetClients() []*ClientConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*ClientConnection, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats contains hub counters
type Stats struct {
	ClientCount      int    `json:"client_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	FrameErrors      uint64 `json:"frame_errors"`
}

// GetStats returns hub counters
func (h *Hub) GetStats() Stats {
	return Stats{
		ClientCount:      h.ClientCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		FrameErrors:      h.frameErrors.Load(),
	}
}

// ClientInfo describes a connected client
type ClientInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetClientInfos returns info about all connected clients
func (h *Hub) GetClientInfos() []ClientInfo {
	clients := h.GetClients()
	infos := make([]ClientInfo, 0, len(clients))
	for _, c := range clients {
		c.mu.Lock()
		infos = append(infos, ClientInfo{ID: c.ID, Connected: c.Connected, LastSeen: c.LastSeen})
		c.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes mounts client listing endpoints
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	clients := api.Group("/clients")

	clients.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"clients": h.GetClientInfos(),
			"count":   h.ClientCount(),
		})
	})

	clients.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}

func generateClientID() string {
	return uuid.NewString()
}
