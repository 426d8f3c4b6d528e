package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	sdk "github.com/segmentio/kafka-go"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...sdk.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by identity, so all
// events for one person land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	writer := &sdk.Writer{
		Addr:                   sdk.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &sdk.Hash{},
		RequiredAcks:           sdk.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// Publish serializes and writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event AttendanceEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, sdk.Message{
		Key:   []byte(event.Identity),
		Value: value,
		Headers: []sdk.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a KafkaPublisher when brokers are configured and a
// NopPublisher otherwise.
func NewPublisher(cfg *config.KafkaConfig) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}
