package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	usecases_port "olx-parser-service/internal/core/port/usecases"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_consumer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ListingConsumerAdapter listens to the extracted listings queue and saves every record.
type ListingConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  usecases_port.SaveListingPort
	logger   port.LoggerPort
	runCtx   context.Context
}

func NewListingConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.SaveListingPort,
	logger port.LoggerPort,
) (*ListingConsumerAdapter, error) {
	adapter := newListingConsumerAdapter(useCase, logger)

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, adapter.messageHandler)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for listings: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

func newListingConsumerAdapter(useCase usecases_port.SaveListingPort, logger port.LoggerPort) *ListingConsumerAdapter {
	return &ListingConsumerAdapter{
		useCase: useCase,
		logger:  logger.WithFields(port.Fields{"component": "ListingConsumerAdapter"}),
		runCtx:  context.Background(),
	}
}

func (a *ListingConsumerAdapter) messageHandler(d amqp.Delivery) (ack bool, requeueOnError bool, err error) {
	ctx, msgLogger := deliveryContext(a.runCtx, d, a.logger)

	if err := validateDelivery(d, contracts.TypeListingRecord); err != nil {
		msgLogger.Error("Listing failed schema validation, rejecting", err, nil)
		return false, false, err
	}

	var record domain.ListingRecord
	if err := json.Unmarshal(d.Body, &record); err != nil {
		msgLogger.Error("Error unmarshalling listing, rejecting", err, nil)
		return false, false, fmt.Errorf("unmarshal listing: %w", err)
	}

	recordLogger := msgLogger.WithFields(port.Fields{"listing_id": record.ListingID, "url": record.URL})

	if err := a.useCase.Execute(withLogger(ctx, recordLogger), record); err != nil {
		return failureOutcome(d, err, recordLogger)
	}

	recordLogger.Info("Listing saved", nil)
	return true, false, nil
}

// Start implements port.EventListenerPort.
func (a *ListingConsumerAdapter) Start(ctx context.Context) error {
	a.runCtx = ctx
	return a.consumer.StartConsuming(ctx)
}

// Close implements port.EventListenerPort.
func (a *ListingConsumerAdapter) Close() error {
	return a.consumer.Close()
}

func withLogger(ctx context.Context, logger port.LoggerPort) context.Context {
	return contextkeys.ContextWithLogger(ctx, logger)
}
