package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/port"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// deliveryContext derives a message-scoped context carrying the trace id from
// the message headers (or a fresh one) and a logger tagged with it.
func deliveryContext(parent context.Context, d amqp.Delivery, logger port.LoggerPort) (context.Context, port.LoggerPort) {
	traceID, ok := d.Headers[traceIDHeader].(string)
	if !ok || traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
		"consumer_tag": d.ConsumerTag,
	})

	ctx := contextkeys.ContextWithLogger(parent, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)
	return ctx, msgLogger
}

// validateDelivery checks the body against the contract named in the headers.
// Messages without headers are validated as expectedType.
func validateDelivery(d amqp.Delivery, expectedType string) error {
	eventType, _ := d.Headers[eventTypeHeader].(string)
	if eventType == "" {
		eventType = expectedType
	}
	if eventType != expectedType {
		return fmt.Errorf("unexpected event type %q, want %q", eventType, expectedType)
	}

	eventVersion, _ := d.Headers[eventVersionHeader].(string)
	if eventVersion == "" {
		eventVersion = contracts.Version1
	}
	return contracts.Validate(eventType, eventVersion, d.Body)
}

// failureOutcome maps a use case error to the consumer reply.
// A message is requeued once; a redelivered message that fails again is dropped.
func failureOutcome(d amqp.Delivery, err error, logger port.LoggerPort) (ack bool, requeueOnError bool, outErr error) {
	if errors.Is(err, context.Canceled) {
		logger.Warn("Processing interrupted by shutdown, requeueing", nil)
		return false, true, err
	}
	if d.Redelivered {
		logger.Error("Use case failed on a redelivered message, discarding", err, nil)
		return false, false, err
	}
	logger.Error("Use case failed, requeueing", err, nil)
	return false, true, err
}
