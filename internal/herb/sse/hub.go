package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
)

// EventTypeLedger 供应链事件推送的SSE事件名
const EventTypeLedger = "supply_chain_event"

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client. OrgID scopes ledger pushes to
// events touching that organization; AllOrgs receives everything (admins).
type Client struct {
	ID      string
	UserID  string
	OrgID   string
	AllOrgs bool
	Events  chan Event
}

func (c *Client) wants(ev *entity.SupplyChainEvent) bool {
	return c.AllOrgs || c.OrgID == ev.FromLocationID || c.OrgID == ev.ToLocationID
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.send(client, event)
	}
}

// Publish 推送新写入的供应链事件给相关组织的客户端
func (h *Hub) Publish(ev *entity.SupplyChainEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("sse marshal ledger event failed", zap.String("event_id", ev.ID), zap.Error(err))
		return
	}
	event := Event{EventType: EventTypeLedger, Data: string(data)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.wants(ev) {
			h.send(client, event)
		}
	}
}

func (h *Hub) send(client *Client, event Event) {
	select {
	case client.Events <- event:
	default:
		h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
	}
}
