package propertysink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink implements Sink using segmentio/kafka-go.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSink creates a Kafka sink that writes property definitions to the given topic.
// brokers must be non-empty. Call Close when shutting down.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaSink{writer: writer, topic: topic}, nil
}

// Emit serializes the definition as JSON and writes it to the Kafka topic,
// keyed by team and property key so downstream compaction keeps the latest
// inference per property.
// Uses the request context with a short timeout so slow Kafka does not block callers indefinitely.
func (s *KafkaSink) Emit(ctx context.Context, def *Definition) error {
	if s == nil || s.writer == nil || def == nil {
		return nil
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = s.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d:%s", def.TeamID, def.Key)),
		Value: payload,
	})
	if err != nil {
		log.Printf("propertysink: kafka emit failed: %v", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times.
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
