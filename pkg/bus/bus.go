// Package bus is the in-process pub/sub used for cross-component
// notifications (profile updated, session refreshed, voice turn done).
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/kinhai-collab/Mira-sub001/pkg/events"
)

const Topic = "mira.notifications"

// Bus wraps a watermill gochannel pub/sub with typed event payloads.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// Envelope is the wire form of an event on the bus.
type Envelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func New() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Publish emits an event to all subscribers. Lossy by design: a slow
// subscriber must not block the publisher's request path.
func (b *Bus) Publish(event events.Event) error {
	data, err := json.Marshal(Envelope{
		Type:    event.EventType(),
		Payload: event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return b.pubSub.Publish(Topic, msg)
}

// Subscribe returns the raw message channel for the notification topic.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, Topic)
}

// Close shuts the underlying pub/sub down.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
