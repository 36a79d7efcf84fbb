package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	usecases_port "olx-parser-service/internal/core/port/usecases"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_consumer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LinkConsumerAdapter listens to the link queue and runs the extraction use case for every link.
type LinkConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  usecases_port.ProcessLinkPort
	logger   port.LoggerPort
	runCtx   context.Context
}

func NewLinkConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.ProcessLinkPort,
	logger port.LoggerPort,
) (*LinkConsumerAdapter, error) {
	adapter := newLinkConsumerAdapter(useCase, logger)

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, adapter.messageHandler)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for links: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

func newLinkConsumerAdapter(useCase usecases_port.ProcessLinkPort, logger port.LoggerPort) *LinkConsumerAdapter {
	return &LinkConsumerAdapter{
		useCase: useCase,
		logger:  logger.WithFields(port.Fields{"component": "LinkConsumerAdapter"}),
		runCtx:  context.Background(),
	}
}

func (a *LinkConsumerAdapter) messageHandler(d amqp.Delivery) (ack bool, requeueOnError bool, err error) {
	ctx, msgLogger := deliveryContext(a.runCtx, d, a.logger)
	msgLogger.Debug("Received link task", nil)

	if err := validateDelivery(d, contracts.TypeLinkTask); err != nil {
		msgLogger.Error("Link task failed schema validation, rejecting", err, nil)
		return false, false, err
	}

	var link domain.ListingLink
	if err := json.Unmarshal(d.Body, &link); err != nil {
		msgLogger.Error("Error unmarshalling link task, rejecting", err, nil)
		return false, false, fmt.Errorf("unmarshal link task: %w", err)
	}

	taskLogger := msgLogger.WithFields(port.Fields{
		"url":         link.URL,
		"run_id":      link.RunID.String(),
		"search_name": link.SearchName,
	})

	if err := a.useCase.Execute(withLogger(ctx, taskLogger), link); err != nil {
		return failureOutcome(d, err, taskLogger)
	}

	taskLogger.Debug("Link task processed", nil)
	return true, false, nil
}

// Start implements port.EventListenerPort.
func (a *LinkConsumerAdapter) Start(ctx context.Context) error {
	a.runCtx = ctx
	return a.consumer.StartConsuming(ctx)
}

// Close implements port.EventListenerPort.
func (a *LinkConsumerAdapter) Close() error {
	return a.consumer.Close()
}
