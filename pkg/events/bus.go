package events

import (
	"context"
	"encoding/json"
	"fmt"

	"bigsis-chat/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher sends events somewhere. Bus implements it, and so do mirrors
// such as the NATS publisher.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus is the in-process event bus. Each event type is its own topic.
// Events are also forwarded to every mirror; mirror failures are logged and
// never reach the publisher.
type Bus struct {
	pubSub  *gochannel.GoChannel
	logger  logger.ILogger
	mirrors []Publisher
}

func NewBus(l logger.ILogger, mirrors ...Publisher) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			NewWatermillLogger(l),
		),
		logger:  l,
		mirrors: mirrors,
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if err := b.pubSub.Publish(event.EventType(), msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}

	for _, m := range b.mirrors {
		if err := m.Publish(ctx, event); err != nil {
			b.logger.Warn(logger.ModuleEvents, "Mirror publish failed", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Subscribe returns the events of the given type published after the call.
// The channel closes when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, eventType string) (<-chan Event, error) {
	messages, err := b.pubSub.Subscribe(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev BaseEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn(logger.ModuleEvents, "Dropping undecodable event", map[string]interface{}{
					"topic": eventType,
					"error": err.Error(),
				})
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
