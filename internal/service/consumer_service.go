package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/websocket"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService forwards bus events to the websocket hub so connected
// dashboards learn about profile and session changes without polling.
type consumerService struct {
	eventBus *bus.Bus
	hub      *websocket.Hub
	log      logger.ILogger
}

func NewConsumerService(eventBus *bus.Bus, hub *websocket.Hub, log logger.ILogger) IConsumerService {
	return &consumerService{
		eventBus: eventBus,
		hub:      hub,
		log:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var envelope bus.Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.log.Error("ConsumerService", "Failed to unmarshal bus message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	rawUserId, _ := envelope.Payload["user_id"].(string)
	userId, err := uuid.Parse(rawUserId)
	if err != nil {
		// Events without a user target are audit-only; nothing to push.
		msg.Ack()
		return
	}

	cs.hub.SendToUser(userId, websocket.Notification{
		Type:    envelope.Type,
		Payload: envelope.Payload,
	})
	msg.Ack()
}
