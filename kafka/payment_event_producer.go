package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"order-hub/models"
)

// ProducerAPI is what services need from the event producer. A nil
// implementation disables publishing.
type ProducerAPI interface {
	SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error
	Close() error
}

// PaymentEventProducer publishes payment lifecycle events keyed by order id
// so all events for one order land on the same partition.
type PaymentEventProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewPaymentEventProducer(brokers []string, topic string, logger *zap.Logger) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka payment event producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &PaymentEventProducer{writer: w, logger: logger}
}

func (p *PaymentEventProducer) SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to send payment event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *PaymentEventProducer) Close() error {
	return p.writer.Close()
}
