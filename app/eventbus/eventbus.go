package eventbus

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// EventBus is the best-effort notification hand-off for the settlement
// engine. Publish failures are the caller's to log and swallow; nothing
// here blocks settlement.
type EventBus struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewEventBus creates a watermill publisher over NATS.
func NewEventBus(natsURL string, logger *slog.Logger) (*EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:       natsURL,
			Marshaler: &wmnats.NATSMarshaler{},
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	return &EventBus{publisher: publisher, logger: logger}, nil
}

// Publish forwards a message to the underlying transport.
func (b *EventBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

// Close shuts down the underlying publisher.
func (b *EventBus) Close() error {
	return b.publisher.Close()
}
