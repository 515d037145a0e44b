package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"
)

// EventPublisher sends order lifecycle events to the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt models.OrderEvent) error
}

type typedPublisher interface {
	PublishWithType(ctx context.Context, topicArn, eventType string, message []byte) error
}

// SNSEventPublisher publishes events as JSON to one SNS topic.
type SNSEventPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client awspkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

func (p *SNSEventPublisher) PublishEvent(ctx context.Context, evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.EventType, err)
	}
	if tp, ok := p.client.(typedPublisher); ok {
		return tp.PublishWithType(ctx, p.topicArn, evt.EventType, data)
	}
	return p.client.Publish(ctx, p.topicArn, data)
}

// MultiPublisher fans an event out to several buses. Every bus is attempted;
// the first error is returned.
type MultiPublisher struct {
	publishers []EventPublisher
	logger     *zap.Logger
}

func NewMultiPublisher(logger *zap.Logger, publishers ...EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers, logger: logger}
}

func (m *MultiPublisher) PublishEvent(ctx context.Context, evt models.OrderEvent) error {
	var first error
	for _, p := range m.publishers {
		if err := p.PublishEvent(ctx, evt); err != nil {
			m.logger.Warn("event bus publish failed", zap.String("event", evt.EventType), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Len reports how many buses are configured.
func (m *MultiPublisher) Len() int { return len(m.publishers) }
