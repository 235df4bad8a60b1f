// Package chat tracks live websocket connections per user and pushes frames to them.
package chat

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	FrameMessage      = "message"
	FrameNotification = "notification"
	FrameError        = "error"
)

// Frame is the JSON envelope written to clients.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live connection. Writes are serialized because a websocket
// connection supports a single concurrent writer.
type Client struct {
	UserID string
	conn   Conn
	mu     sync.Mutex
}

func (c *Client) write(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(f)
}

// Hub maps user ids to their live connections. Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	gauge   prometheus.Gauge
}

// NewHub returns an empty hub. gauge may be nil.
func NewHub(gauge prometheus.Gauge) *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{}), gauge: gauge}
}

// NewConnectionsGauge registers the live connection gauge on reg.
func NewConnectionsGauge(reg prometheus.Registerer) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections",
		Help: "Number of live chat websocket connections.",
	})
	if err := reg.Register(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (h *Hub) Register(userID string, conn Conn) *Client {
	c := &Client{UserID: userID, conn: conn}
	h.mu.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.Inc()
	}
	return c
}

// Unregister removes c. Removing an unknown client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.Dec()
	}
}

// Online reports whether userID has at least one live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send writes f to every connection of userID and returns how many writes succeeded.
// Connections that fail a write are closed and unregistered.
func (h *Hub) Send(userID string, f Frame) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(f); err != nil {
			h.Unregister(c)
			_ = c.conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// Reply writes f to a single client.
func (h *Hub) Reply(c *Client, f Frame) error {
	return c.write(f)
}
