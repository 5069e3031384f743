package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/domain"
)

const writeTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a single topic keyed by order id, so
// every event of one order lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logrus.Logger
}

var _ domain.OrderEventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.OrderTopic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Infof("Events: Publishing order events to %s on %v", cfg.OrderTopic, cfg.Brokers)
	return &KafkaPublisher{writer: writer, topic: cfg.OrderTopic, log: logger}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Errorf("Events: Failed to marshal %s for order %d: %v", event.Type, event.OrderID, err)
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.WithFields(logrus.Fields{
			"event_id": event.EventID,
			"order_id": event.OrderID,
			"topic":    p.topic,
		}).Errorf("Events: Failed to publish %s: %v", event.Type, err)
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"order_id": event.OrderID,
		"status":   event.Status,
	}).Infof("Events: Published %s", event.Type)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// LogPublisher only logs events; it is used when no brokers are configured.
type LogPublisher struct {
	log *logrus.Logger
}

var _ domain.OrderEventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: logger}
}

func (p *LogPublisher) PublishOrderEvent(_ context.Context, event domain.OrderEvent) error {
	p.log.WithFields(logrus.Fields{
		"event_id":        event.EventID,
		"order_id":        event.OrderID,
		"status":          event.Status,
		"previous_status": event.PreviousStatus,
		"total_amount":    event.TotalAmount.StringFixed(2),
	}).Infof("Events: %s", event.Type)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
