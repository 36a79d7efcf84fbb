package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	traceIDHeader      = "x-trace-id"
	eventTypeHeader    = "event-type"
	eventVersionHeader = "event-version"
	publishTimeout     = 10 * time.Second
)

// MessagePublisher is satisfied by rabbitmq_producer.Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// publishJSON marshals payload and publishes it as a persistent message.
// The headers carry the contract type and version plus the trace id of ctx.
func publishJSON(ctx context.Context, producer MessagePublisher, routingKey, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			eventTypeHeader:    eventType,
			eventVersionHeader: contracts.Version1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers[traceIDHeader] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return producer.Publish(publishCtx, routingKey, msg)
}
