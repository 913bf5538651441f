// Package realtime pushes match and message events to connected websocket
// clients. Clients are addressed by profile id.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/infra/metrics"
)

const (
	EventMatch   = "match"
	EventMessage = "message"

	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	maxReadBytes = 4 << 10
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MatchEvent tells a participant who they matched with.
type MatchEvent struct {
	MatchID   string              `json:"match_id"`
	MatchedAt time.Time           `json:"matched_at"`
	Profile   model.PublicProfile `json:"profile"`
}

type client struct {
	profileID string
	conn      *websocket.Conn
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log,
	}
}

// Serve owns conn until the peer goes away. It blocks in the read loop and
// runs one writer goroutine.
func (h *Hub) Serve(conn *websocket.Conn, profileID string) {
	c := &client{
		profileID: profileID,
		conn:      conn,
		send:      make(chan Event, sendBuffer),
		done:      make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Publish queues evt for every connection of profileID. Slow clients drop
// events instead of blocking the caller.
func (h *Hub) Publish(profileID string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[profileID] {
		select {
		case c.send <- evt:
		default:
			h.log.Warn("realtime buffer full, event dropped",
				zap.String("profile_id", profileID),
				zap.String("type", evt.Type),
			)
		}
	}
}

func (h *Hub) Connections(profileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[profileID])
}

func (h *Hub) MatchCreated(_ context.Context, m model.Match, a, b model.Profile) {
	h.Publish(a.ID, Event{Type: EventMatch, Data: MatchEvent{MatchID: m.ID, MatchedAt: m.CreatedAt, Profile: b.Public()}})
	h.Publish(b.ID, Event{Type: EventMatch, Data: MatchEvent{MatchID: m.ID, MatchedAt: m.CreatedAt, Profile: a.Public()}})
}

func (h *Hub) MessageSent(_ context.Context, msg model.Message) {
	h.Publish(msg.RecipientID, Event{Type: EventMessage, Data: msg})
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.profileID] == nil {
		h.clients[c.profileID] = make(map[*client]struct{})
	}
	h.clients[c.profileID][c] = struct{}{}
	metrics.RealtimeConnected()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if peers, ok := h.clients[c.profileID]; ok {
		if _, found := peers[c]; found {
			delete(peers, c)
			metrics.RealtimeDisconnected()
		}
		if len(peers) == 0 {
			delete(h.clients, c.profileID)
		}
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("realtime read failed", zap.String("profile_id", c.profileID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case evt := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(evt); err != nil {
				h.log.Debug("realtime write failed", zap.String("profile_id", c.profileID), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
