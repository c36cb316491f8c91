package sse

import (
	"sync"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
)

// Hub keeps the open notification streams, indexed by user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
	byUser  map[int64]map[string]*notification.SSEClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*notification.SSEClient),
		byUser:  make(map[int64]map[string]*notification.SSEClient),
	}
}

var _ notification.SSEHub = (*Hub)(nil)

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
	streams, ok := h.byUser[client.UserID]
	if !ok {
		streams = make(map[string]*notification.SSEClient)
		h.byUser[client.UserID] = streams
	}
	streams[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	c.Close()
	delete(h.clients, clientID)
	if streams := h.byUser[c.UserID]; streams != nil {
		delete(streams, clientID)
		if len(streams) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToUser offers message to every stream of userID without blocking.
// Streams with a full buffer miss the message.
func (h *Hub) SendToUser(userID int64, message *notification.SSEMessage) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.byUser[userID] {
		if trySend(c, message) {
			sent++
		}
	}
	return sent
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
	h.byUser = make(map[int64]map[string]*notification.SSEClient)
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
