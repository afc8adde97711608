// Package realtime keeps per-user groups of live sessions and fans events out
// to them.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultQueueSize bounds the per-session send queue.
const DefaultQueueSize = 64

// Frame is the wire envelope of every server-to-client message.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client is one live session. Frames are consumed from Send by the writer.
type Client struct {
	userID  int64
	send    chan []byte
	once    sync.Once
	dropped atomic.Int64
}

func (c *Client) UserID() int64 { return c.userID }

// Send yields encoded frames. It is closed when the client leaves the hub.
func (c *Client) Send() <-chan []byte { return c.send }

// Dropped reports how many frames were discarded because the queue was full.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

func (c *Client) offer(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub is the in-process broadcaster. A user may hold any number of sessions.
type Hub struct {
	mu        sync.RWMutex
	groups    map[int64]map[*Client]struct{}
	queueSize int
	closed    bool
	logger    *zap.Logger
}

func NewHub(queueSize int, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		groups:    make(map[int64]map[*Client]struct{}),
		queueSize: queueSize,
		logger:    logger.Named("realtime"),
	}
}

// Join binds a new session to userID's group. It returns nil once the hub is
// closed.
func (h *Hub) Join(userID int64) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	c := &Client{userID: userID, send: make(chan []byte, h.queueSize)}
	group, ok := h.groups[userID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[userID] = group
	}
	group[c] = struct{}{}
	h.logger.Debug("session joined", zap.Int64("user_id", userID), zap.Int("sessions", len(group)))
	return c
}

// Leave removes c from its group and closes its queue. Calling it twice is safe.
func (h *Hub) Leave(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	if group, ok := h.groups[c.userID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// EmitToUser delivers event to every session of userID. Users without
// sessions and sessions with a full queue are skipped silently.
func (h *Hub) EmitToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	h.deliver(userID, event, frame)
	return nil
}

// Deliver pushes event to a single session, used for the per-connection sync.
func (h *Hub) Deliver(c *Client, event string, payload interface{}) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.groups[c.userID][c]; ok {
		c.offer(frame)
	}
	return nil
}

func (h *Hub) deliver(userID int64, event string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[userID] {
		if !c.offer(frame) {
			h.logger.Warn("session queue full, event dropped",
				zap.Int64("user_id", userID), zap.String("event", event))
		}
	}
}

// ConnectionCount returns the number of live sessions of userID.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// Close disconnects every session and refuses new ones.
func (h *Hub) Close(context.Context) error {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[int64]map[*Client]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, group := range groups {
		for c := range group {
			c.close()
		}
	}
	return nil
}

// Encode renders one frame.
func Encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: payload})
}
