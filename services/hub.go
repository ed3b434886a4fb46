package services

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub tracks every connected client. Broadcasts always iterate a snapshot
// taken under the lock and send outside it, so a client disconnecting
// mid-broadcast cannot corrupt iteration and a slow socket cannot block
// state transitions.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("Client %s connected (total: %d)", c.ID, total)
}

func (h *Hub) Remove(c *Client) bool {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		log.Printf("Client %s removed (total: %d)", c.ID, total)
	}
	return ok
}

// Clients returns a point-in-time snapshot of the connected clients.
func (h *Hub) Clients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every registered client. Send failures are
// per-client: a dead connection marks itself disconnected and is cleaned up
// by its own read loop, the rest of the broadcast continues.
func (h *Hub) Broadcast(payload any) {
	h.BroadcastTo(h.Clients(), payload)
}

// BroadcastExcept sends to everyone but skip.
func (h *Hub) BroadcastExcept(payload any, skip *Client) {
	targets := h.Clients()
	filtered := targets[:0]
	for _, c := range targets {
		if c != skip {
			filtered = append(filtered, c)
		}
	}
	h.BroadcastTo(filtered, payload)
}

// BroadcastTo sends a message to the given clients only.
func (h *Hub) BroadcastTo(targets []*Client, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return
	}
	for _, c := range targets {
		if err := c.sendRaw(data); err != nil {
			log.Printf("Send to client %s failed: %v", c.ID, err)
		}
	}
}
