package events

import (
	"context"
	"encoding/json"
	"time"

	"storefront-backend/pkg/awsutil"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderEvent is the standardized domain event published on order
// lifecycle changes.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Producer fans order events out to Kafka and optionally SNS. Both
// sinks are best-effort: publish failures are logged, never propagated.
type Producer struct {
	writer      *kafka.Writer
	sns         awsutil.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

func NewProducer(brokers []string, topic string, sns awsutil.SNSPublisher, snsTopicArn string, logger *zap.Logger) *Producer {
	p := &Producer{sns: sns, snsTopicArn: snsTopicArn, logger: logger}
	if len(brokers) > 0 && topic != "" {
		p.writer = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return p
}

func (p *Producer) Publish(ctx context.Context, event OrderEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", zap.Error(err))
		return
	}

	if p.writer != nil {
		msg := kafka.Message{
			Key:   []byte(event.OrderID),
			Value: payload,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Warn("Kafka publish failed",
				zap.String("event_type", event.Type),
				zap.Error(err),
			)
		}
	}

	if p.sns != nil && p.snsTopicArn != "" {
		if err := p.sns.Publish(ctx, p.snsTopicArn, payload); err != nil {
			p.logger.Warn("SNS publish failed",
				zap.String("event_type", event.Type),
				zap.Error(err),
			)
		}
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
