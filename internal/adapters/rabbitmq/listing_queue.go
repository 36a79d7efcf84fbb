package rabbitmq

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
)

// RabbitMQListingQueueAdapter implements port.ListingQueuePort.
type RabbitMQListingQueueAdapter struct {
	producer   MessagePublisher
	routingKey string
}

func NewRabbitMQListingQueueAdapter(producer MessagePublisher, routingKey string) (*RabbitMQListingQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RabbitMQListingQueueAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *RabbitMQListingQueueAdapter) Enqueue(ctx context.Context, record domain.ListingRecord) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "RabbitMQListingQueueAdapter",
		"routing_key": a.routingKey,
		"listing_id":  record.ListingID,
	})

	if err := publishJSON(ctx, a.producer, a.routingKey, contracts.TypeListingRecord, record); err != nil {
		logger.Error("Failed to publish listing", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish listing %s: %w", record.URL, err)
	}

	logger.Debug("Listing published", nil)
	return nil
}
