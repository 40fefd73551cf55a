// Package producer publishes flow events to Kafka for downstream consumers (e.g. the worker that
// forwards them to Loki).
package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"phone-verification/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements telemetry.EventEmitter using segmentio/kafka-go. Events are keyed by
// flow id so every transition of a flow lands on the same partition, in order.
type KafkaProducer struct {
	writer messageWriter
}

// NewKafkaProducer creates a producer writing to topic. It returns nil when brokers or topic are
// empty; a nil producer is a valid no-op emitter. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaProducer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Emit serializes the event as JSON and writes it to the topic.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.FlowEvent) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.FlowID),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
