package rabbitmq_consumer

import (
	"context"
	"fmt"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_common"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one delivery. A non-nil err nacks the message with
// requeueOnError; otherwise ack decides between Ack and Nack without requeue.
type MessageHandler func(delivery amqp.Delivery) (ack bool, requeueOnError bool, err error)

type ConsumerConfig struct {
	rabbitmq_common.Config

	QueueName       string // generated by the server when empty and DeclareQueue is set
	DeclareQueue    bool
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table

	// ExchangeNameForBind binds the queue to this exchange when set
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	ExchangeArgsForBind    amqp.Table

	RoutingKeyForBind string
	BindingArgs       amqp.Table

	// PrefetchCount of 0 means unlimited
	PrefetchCount int
	PrefetchSize  int
	QosGlobal     bool

	ConsumerTag       string
	ExclusiveConsumer bool
}

type Consumer struct {
	config     ConsumerConfig
	handler    MessageHandler
	logger     rabbitmq_common.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
	// the queue name may be generated by the server
	actualQueueName string

	wg sync.WaitGroup
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return nil, fmt.Errorf("consumer: queue name is required if DeclareQueue is false")
	}
	if cfg.ExchangeNameForBind != "" && cfg.ExchangeTypeForBind == "" && cfg.DeclareExchangeForBind {
		return nil, fmt.Errorf("consumer: exchange type is required if declaring an exchange for binding")
	}
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}

	c := &Consumer{
		config:  cfg,
		handler: handler,
		logger:  cfg.GetLogger(),
	}

	if err := c.connectAndSetup(); err != nil {
		return nil, fmt.Errorf("consumer: initial connection and setup failed: %w", err)
	}
	return c, nil
}

// connectAndSetup dials, opens a channel, applies QoS and declares/binds the queue.
func (c *Consumer) connectAndSetup() error {
	c.logger.Debug("Consumer: connecting to RabbitMQ", "queue", c.config.QueueName)
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	c.connection = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	c.channel = ch

	fail := func(err error) error {
		_ = c.channel.Close()
		_ = c.connection.Close()
		return err
	}

	// QoS must be set before Consume
	if c.config.PrefetchCount > 0 || c.config.PrefetchSize > 0 {
		c.logger.Debug("Consumer: setting QoS", "prefetch_count", c.config.PrefetchCount, "prefetch_size", c.config.PrefetchSize)
		if err := c.channel.Qos(c.config.PrefetchCount, c.config.PrefetchSize, c.config.QosGlobal); err != nil {
			return fail(fmt.Errorf("failed to set QoS: %w", err))
		}
	}

	c.actualQueueName = c.config.QueueName
	if c.config.DeclareQueue {
		q, err := c.channel.QueueDeclare(
			c.config.QueueName,
			c.config.DurableQueue,
			c.config.AutoDeleteQueue,
			c.config.ExclusiveQueue,
			false, // no-wait
			c.config.QueueArgs,
		)
		if err != nil {
			return fail(fmt.Errorf("failed to declare queue '%s': %w", c.config.QueueName, err))
		}
		c.actualQueueName = q.Name
	}

	if c.config.DeclareExchangeForBind {
		err := c.channel.ExchangeDeclare(
			c.config.ExchangeNameForBind,
			c.config.ExchangeTypeForBind,
			c.config.DurableExchangeForBind,
			false, // auto-deleted
			false, // internal
			false, // no-wait
			c.config.ExchangeArgsForBind,
		)
		if err != nil {
			return fail(fmt.Errorf("failed to declare exchange '%s' for binding: %w", c.config.ExchangeNameForBind, err))
		}
	}

	if c.config.ExchangeNameForBind != "" {
		err := c.channel.QueueBind(
			c.actualQueueName,
			c.config.RoutingKeyForBind,
			c.config.ExchangeNameForBind,
			false, // no-wait
			c.config.BindingArgs,
		)
		if err != nil {
			return fail(fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.actualQueueName, c.config.ExchangeNameForBind, err))
		}
	}

	c.logger.Info("Consumer: setup complete", "queue", c.actualQueueName, "routing_key", c.config.RoutingKeyForBind)
	return nil
}

// StartConsuming blocks until ctx is cancelled (returns nil) or the connection closes (returns its error).
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.connection == nil || c.connection.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}

	msgs, err := c.channel.Consume(
		c.actualQueueName,
		c.config.ConsumerTag,
		false, // auto-ack
		c.config.ExclusiveConsumer,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer: failed to register a consumer on queue '%s': %w", c.actualQueueName, err)
	}
	c.logger.Info("Consumer: waiting for messages", "queue", c.actualQueueName)

	go c.dispatch(ctx, msgs)

	notifyClose := c.connection.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		c.logger.Info("Consumer: context cancelled, stopping", "queue", c.actualQueueName)
		return nil
	case amqpErr := <-notifyClose:
		if amqpErr == nil {
			return fmt.Errorf("consumer: connection closed")
		}
		c.logger.Error(amqpErr, "Consumer: connection closed", "queue", c.actualQueueName)
		return amqpErr
	}
}

func (c *Consumer) dispatch(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		// cancellation wins over pending deliveries
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn("Consumer: deliveries channel closed", "queue", c.actualQueueName)
				return
			}
			c.wg.Add(1)
			go func(delivery amqp.Delivery) {
				defer c.wg.Done()
				c.handle(delivery)
			}(d)
		}
	}
}

func (c *Consumer) handle(delivery amqp.Delivery) {
	ack, requeueOnError, processErr := c.handler(delivery)

	switch {
	case processErr != nil:
		c.logger.Warn("Consumer: message failed", "delivery_tag", delivery.DeliveryTag, "requeue", requeueOnError, "error", processErr.Error())
		if err := delivery.Nack(false, requeueOnError); err != nil {
			c.logger.Error(err, "Consumer: failed to send Nack", "delivery_tag", delivery.DeliveryTag)
		}
	case ack:
		if err := delivery.Ack(false); err != nil {
			c.logger.Error(err, "Consumer: failed to send Ack", "delivery_tag", delivery.DeliveryTag)
		}
	default:
		c.logger.Debug("Consumer: message rejected by handler", "delivery_tag", delivery.DeliveryTag)
		if err := delivery.Nack(false, false); err != nil {
			c.logger.Error(err, "Consumer: failed to send Nack", "delivery_tag", delivery.DeliveryTag)
		}
	}
}

// Close waits for running handlers and closes the channel and connection.
func (c *Consumer) Close() error {
	c.logger.Debug("Consumer: waiting for message handlers to finish")
	c.wg.Wait()

	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error(err, "Consumer: error closing channel")
			firstErr = err
		}
		c.channel = nil
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			c.logger.Error(err, "Consumer: error closing connection")
			if firstErr == nil {
				firstErr = err
			}
		}
		c.connection = nil
	}
	c.logger.Info("Consumer: closed")
	return firstErr
}
