package rabbitmq

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
)

// RabbitMQLinkQueueAdapter implements port.LinksQueuePort.
type RabbitMQLinkQueueAdapter struct {
	producer   MessagePublisher
	routingKey string
}

func NewRabbitMQLinkQueueAdapter(producer MessagePublisher, routingKey string) (*RabbitMQLinkQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RabbitMQLinkQueueAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *RabbitMQLinkQueueAdapter) Enqueue(ctx context.Context, link domain.ListingLink) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "RabbitMQLinkQueueAdapter",
		"routing_key": a.routingKey,
		"url":         link.URL,
	})

	if err := publishJSON(ctx, a.producer, a.routingKey, contracts.TypeLinkTask, link); err != nil {
		logger.Error("Failed to publish link", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish link %s: %w", link.URL, err)
	}

	logger.Debug("Successfully published link", nil)
	return nil
}
