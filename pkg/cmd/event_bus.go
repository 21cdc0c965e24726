package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/cutoverlabs/cutover/pkg/channels/kafka"
	"github.com/cutoverlabs/cutover/pkg/eventbus"
)

// NewEventBus creates the notification event bus. The kafka provider reads
// its broker list from KAFKA_BROKERS; anything else gets an in-process
// channel, which is enough for single-binary deployments.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, "cutover")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		channel := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)

		return eventbus.NewWatermillEventBus(channel, channel), nil
	}
}
