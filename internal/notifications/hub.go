package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"pulse/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is the fan-out router. Every registered connection is addressable
// through its userID group (all of a user's devices) and its sessionID group
// (exactly one device). Delivery is at-most-once and best-effort.
type Hub struct {
	mu         sync.RWMutex
	byUser     map[uint]map[*Client]struct{}
	bySession  map[uint]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	presence   *Presence
}

// NewHub creates a new Hub. A Redis client, when given, backs cross-process
// presence tracking; without one presence is process-local.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &Hub{
		byUser:    make(map[uint]map[*Client]struct{}),
		bySession: make(map[uint]map[*Client]struct{}),
		shutdown:  make(chan struct{}),
		presence:  NewPresence(redisClient),
	}
}

// Register adds a connection under its userID and sessionID groups. Returns
// the Client, or an error if connection limits are exceeded.
func (h *Hub) Register(userID, sessionID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	userConns, ok := h.byUser[userID]
	if !ok {
		userConns = make(map[*Client]struct{})
		h.byUser[userID] = userConns
	}
	if len(userConns) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	sessionConns, ok := h.bySession[sessionID]
	if !ok {
		sessionConns = make(map[*Client]struct{})
		h.bySession[sessionID] = sessionConns
	}

	client := NewClient(h, conn, userID, sessionID)
	userConns[client] = struct{}{}
	sessionConns[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.ActiveWebSockets.Inc()

	if h.presence != nil {
		h.presence.Connected(context.Background(), userID)
	}

	return client, nil
}

// UnregisterClient removes a connection from both of its groups.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.byUser[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	if m, ok := h.bySession[client.SessionID]; ok {
		delete(m, client)
		if len(m) == 0 {
			delete(h.bySession, client.SessionID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.ActiveWebSockets.Dec()
		if h.presence != nil {
			h.presence.Disconnected(context.Background(), client.UserID)
		}
	}
}

// EmitToUsers delivers the event to every live connection of every user in
// the audience, exactly once per connection.
func (h *Hub) EmitToUsers(userIDs []uint, event string, payload interface{}) {
	data := Envelope{Event: event, Data: payload}.Encode()
	if data == nil {
		return
	}
	observability.EventsEmitted.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for c := range h.byUser[userID] {
			c.TrySend(data)
		}
	}
}

// EmitToSession delivers the event to the connections of a single session.
func (h *Hub) EmitToSession(sessionID uint, event string, payload interface{}) {
	data := Envelope{Event: event, Data: payload}.Encode()
	if data == nil {
		return
	}
	observability.EventsEmitted.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.bySession[sessionID] {
		c.TrySend(data)
	}
}

// IsOnline reports whether a user currently has at least one live connection
// on this process or, with Redis, on any process.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil && h.presence.Shared() {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.byUser[userID]
	return ok && len(clients) > 0
}

// StartWiring subscribes the hub to the notifier's Redis channels so events
// published by other processes reach this hub's connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(delivery EventDelivery) {
		if delivery.SessionID != 0 {
			h.EmitToSession(delivery.SessionID, delivery.Event, delivery.Data)
			return
		}
		h.EmitToUsers(delivery.UserIDs, delivery.Event, delivery.Data)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for userID, userConns := range h.byUser {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	h.byUser = make(map[uint]map[*Client]struct{})
	h.bySession = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}
