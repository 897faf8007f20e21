package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
)

const redisChannel = "mira:ws:notifications"

// Notification is the frame pushed to dashboard clients.
type Notification struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type redisFrame struct {
	Origin       uuid.UUID    `json:"origin"`
	UserID       uuid.UUID    `json:"user_id"`
	Notification Notification `json:"notification"`
}

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	// instanceId marks frames this hub published so its own Redis
	// subscription does not deliver them twice.
	instanceId uuid.UUID

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		instanceId: uuid.New(),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToUser delivers a notification to every device the user has open, on
// this instance directly and on peers through Redis.
func (h *Hub) SendToUser(userId uuid.UUID, notification Notification) {
	h.deliverLocal(userId, notification)

	if h.rdb != nil {
		frame, err := json.Marshal(redisFrame{Origin: h.instanceId, UserID: userId, Notification: notification})
		if err != nil {
			return
		}
		if err := h.rdb.Publish(context.Background(), redisChannel, frame).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(userId uuid.UUID, notification Notification) {
	data, err := json.Marshal(notification)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := h.clients[userId]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop it rather than block the hub.
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	sub := h.rdb.Subscribe(context.Background(), redisChannel)
	for msg := range sub.Channel() {
		var frame redisFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			continue
		}
		if frame.Origin == h.instanceId {
			continue
		}
		h.deliverLocal(frame.UserID, frame.Notification)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}
