package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/steady/internal/model"
)

// Message is a real-time event pushed to connected clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the active WebSocket clients, indexed by account.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byAcct  map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byAcct:  make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	set, ok := h.byAcct[c.accountID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byAcct[c.accountID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		if set := h.byAcct[c.accountID]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.byAcct, c.accountID)
			}
		}
		close(c.send)
	}
	h.mu.Unlock()
}

// SendToAccount sends a message to every connection of one account and
// reports how many connections it was queued on.
func (h *Hub) SendToAccount(accountID int64, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.byAcct[accountID] {
		if c.enqueue(data) {
			n++
		}
	}
	return n
}

// Channel names the hub as a notification delivery channel.
func (h *Hub) Channel() string { return "websocket" }

// Deliver forwards a persisted notification to the recipient's live
// connections. A recipient with no open connection is not an error.
func (h *Hub) Deliver(_ context.Context, n *model.Notification) error {
	h.SendToAccount(n.To, NewMessage("notification", "created", n.ID, map[string]any{
		"type":           n.Type,
		"from":           n.From,
		"additionalData": n.AdditionalData,
	}))
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
