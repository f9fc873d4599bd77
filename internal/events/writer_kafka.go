package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter sends events to a kafka topic, keyed by event id.
type KafkaWriter struct {
	writer *kafka.Writer
}

func NewKafkaWriter(brokers []string, clientID string) *KafkaWriter {
	return &KafkaWriter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			Transport:    &kafka.Transport{ClientID: clientID},
		},
	}
}

func (k *KafkaWriter) Write(ctx context.Context, topic string, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(e.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "source", Value: []byte(e.Source)},
		},
	})
}

func (k *KafkaWriter) Close(_ context.Context) error {
	return k.writer.Close()
}
