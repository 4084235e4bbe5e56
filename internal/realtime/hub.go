package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event names on the wire
const (
	EventJoin            = "join"
	EventNewNotification = "newNotification"
)

// WSMessage is the envelope for every websocket frame, both directions.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub is the connected-peer directory: a process-wide map from user id to
// the user's single active client. A reconnect overwrites the previous
// entry (last-writer-wins); there is no multi-device fan-out.
//
// The directory is a best-effort liveness cache, not a source of truth.
// Losing it on restart loses nothing because notifications are persisted
// before any push is attempted.
//
// The hub never closes a client's send channel: the superseded client's
// read pump may still be processing frames and replying on it. Eviction
// is signalled through the client's done channel instead, and the
// client's own write pump tears the connection down.
type Hub struct {
	// Registered clients keyed by user id
	clients map[string]*Client

	// Channel lifecycle events; only these mutate the map
	register   chan *Client
	unregister chan *Client

	shutdown chan struct{}

	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

// Run processes channel lifecycle events until Shutdown is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			previous, replaced := h.clients[client.userID]
			h.clients[client.userID] = client
			h.mutex.Unlock()
			if replaced && previous != client {
				// Reconnect before the old channel closed; the new one wins
				previous.evict()
			}
			logrus.WithField("user_id", client.userID).Debug("client registered")

		case client := <-h.unregister:
			h.mutex.Lock()
			// A disconnect only knows its own handle; remove the entry
			// only if it still points at this client
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
			}
			h.mutex.Unlock()
			client.evict()
			logrus.WithField("user_id", client.userID).Debug("client unregistered")

		case <-h.shutdown:
			h.mutex.Lock()
			for userID, client := range h.clients {
				client.evict()
				delete(h.clients, userID)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Shutdown evicts every client and stops the run loop.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// IsConnected reports whether the user currently has a live channel.
func (h *Hub) IsConnected(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// ConnectionsCount returns the number of live channels.
func (h *Hub) ConnectionsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Push delivers a payload to the user's active channel, if any. It is
// fire-and-forget: no acknowledgement, no retry. Returns false when the
// user has no live channel or its send buffer is full; the caller treats
// both the same way (the durable record remains retrievable).
func (h *Hub) Push(userID, event string, payload interface{}) bool {
	h.mutex.RLock()
	client, ok := h.clients[userID]
	h.mutex.RUnlock()

	if !ok {
		return false
	}

	messageBytes, err := json.Marshal(WSMessage{
		Type: event,
		Data: payload,
	})
	if err != nil {
		logrus.WithError(err).Error("error marshaling push message")
		return false
	}

	if client.enqueue(messageBytes) {
		return true
	}

	// Slow consumer; drop the client, the next poll re-seeds state
	h.mutex.Lock()
	if current, stillThere := h.clients[userID]; stillThere && current == client {
		delete(h.clients, userID)
	}
	h.mutex.Unlock()
	client.evict()
	return false
}
