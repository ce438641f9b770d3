// Package feed serves decoded measurements over HTTP and pushes newly
// decoded ones to WebSocket subscribers as the input set changes.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebSocket Constants
// -----------------------------------------------------------------------------

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send subscribe and ping messages.
	maxMessageSize = 4096

	sendBufferSize = 64
)

// Channels a client can subscribe to.
const (
	ChannelMeasurements = "measurements"
	ChannelStatus       = "status"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventMeasurement = "measurement"
	EventReload      = "reload"
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventPing        = "ping"
	EventPong        = "pong"
	EventError       = "error"
)

// Event is the envelope of every WebSocket message in both directions.
type Event struct {
	Type      string   `json:"type"`
	Data      any      `json:"data,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Channels  []string `json:"channels,omitempty"`
}

func newEvent(typ string, data any) *Event {
	return &Event{Type: typ, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func validChannel(ch string) bool {
	return ch == ChannelMeasurements || ch == ChannelStatus
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// closed is set under hub.mu when send is closed.
	closed bool

	subscriptions map[string]bool
	subMu         sync.RWMutex
}

// NewClient creates a client for conn. It is not registered until the hub
// receives it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[string]bool),
	}
}

// Subscribe adds channel subscriptions.
func (c *Client) Subscribe(channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
}

// Unsubscribe removes channel subscriptions.
func (c *Client) Unsubscribe(channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
}

// IsSubscribed reports whether the client receives events on channel.
func (c *Client) IsSubscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subscriptions[channel]
}

// queue marshals ev onto the send buffer, dropping it when the buffer is
// full or the hub has already closed it.
func (c *Client) queue(ev *Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(code, message string) {
	c.queue(newEvent(EventError, map[string]string{"code": code, "message": message}))
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var ev Event
	if err := json.Unmarshal(message, &ev); err != nil {
		c.sendError("invalid_json", "Failed to parse message")
		return
	}

	switch ev.Type {
	case EventSubscribe, EventUnsubscribe:
		var valid []string
		for _, ch := range ev.Channels {
			if validChannel(ch) {
				valid = append(valid, ch)
			}
		}
		if len(valid) == 0 {
			c.sendError("invalid_subscribe", "No known channels specified")
			return
		}
		if ev.Type == EventSubscribe {
			c.Subscribe(valid...)
		} else {
			c.Unsubscribe(valid...)
		}
		c.hub.logger.Debug("subscriptions changed", "type", ev.Type, "channels", valid)
	case EventPing:
		c.queue(newEvent(EventPong, nil))
	default:
		c.sendError("unknown_type", "Unknown message type "+ev.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One event per frame; clients parse each frame as a single JSON value.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub tracks connected clients and fans events out to their subscriptions.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	mu         sync.RWMutex

	logger  *slog.Logger
	metrics *Metrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		logger:     logger,
		metrics:    metrics,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// client's send channel. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.mu.Lock()
			for client := range h.clients {
				client.closed = true
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.setClients(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.setClients(n)
			h.logger.Info("feed client connected", "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				client.closed = true
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.setClients(n)
			h.logger.Info("feed client disconnected", "clients", n)
		}
	}
}

// Register hands c to the running hub. It reports false, closing the
// client's connection, when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		if c.conn != nil {
			c.conn.Close()
		}
		return false
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends ev to every client subscribed to channel and returns how
// many clients accepted it. Clients with a full buffer miss the event.
func (h *Hub) Publish(channel string, ev *Event) (int, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if !client.IsSubscribed(channel) {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			h.metrics.dropped()
		}
	}
	h.metrics.sent(ev.Type, sent)
	return sent, nil
}
