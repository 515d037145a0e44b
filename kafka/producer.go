package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront-service/models"
)

// Writer is the part of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order lifecycle events keyed by order id, so every event
// for one order lands on the same partition in order.
type Producer struct {
	writer Writer
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &Producer{writer: w, topic: topic, logger: logger}
}

// NewProducerWithWriter is used by tests.
func NewProducerWithWriter(w Writer, topic string, logger *zap.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: logger}
}

func (p *Producer) PublishEvent(ctx context.Context, evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.EventType, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka publish failed",
			zap.String("topic", p.topic), zap.String("event", evt.EventType), zap.String("order_id", evt.OrderID), zap.Error(err))
		return err
	}
	p.logger.Debug("kafka event published",
		zap.String("topic", p.topic), zap.String("event", evt.EventType), zap.String("order_id", evt.OrderID))
	return nil
}

func (p *Producer) Close() error {
	p.logger.Info("closing kafka writer", zap.String("topic", p.topic))
	return p.writer.Close()
}
