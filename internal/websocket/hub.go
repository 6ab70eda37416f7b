package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/events"

	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries alerts between server instances.
const ClusterChannel = "clinical_alerts"

// Hub fans alerts out to the websocket clients of each organization.
type Hub struct {
	// Registered clients: organization id -> connections
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	// done is closed when Run returns.
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, may be nil
	rdb *redis.Client

	logger logger.ILogger
}

type clusterMessage struct {
	OrganizationId string          `json:"org_id"`
	Message        json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns registration until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OrganizationId] = append(h.clients[client.OrganizationId], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"org_id": client.OrganizationId})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.OrganizationId]
			for i, c := range clients {
				if c == client {
					h.clients[client.OrganizationId] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.OrganizationId]) == 0 {
				delete(h.clients, client.OrganizationId)
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds a client. It reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its Send channel. After the hub has
// stopped it returns without doing anything.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections for an organization.
func (h *Hub) ClientCount(orgId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orgId])
}

// Deliver sends an event to every client of orgId. With Redis the event goes through
// the cluster channel so every instance, this one included, delivers it once.
func (h *Hub) Deliver(orgId string, event events.Event) {
	data, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"data":        event.Payload(),
		"occurred_at": event.Timestamp(),
	})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode alert", map[string]interface{}{"error": err.Error()})
		return
	}

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{OrganizationId: orgId, Message: data})
		err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("HUB", "Failed to publish alert to cluster, delivering locally", map[string]interface{}{"error": err.Error()})
	}
	h.sendLocal(orgId, data)
}

func (h *Hub) sendLocal(orgId string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[orgId] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("HUB", "Client send buffer full, dropping connection", map[string]interface{}{"org_id": orgId})
			// Run holds the write lock while unregistering.
			go h.Unregister(client)
		}
	}
}

// subscribeToRedis delivers alerts published by any instance.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("HUB", "Dropping malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.sendLocal(payload.OrganizationId, payload.Message)
		}
	}
}
