package kafka

import (
	"context"
	"encoding/json"

	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes ledger events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish marshals the event as JSON and writes it keyed by topic name.
// The writer is bound to one topic at construction; the topic argument
// only becomes the message key for consumers that multiplex.
func (p *Publisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Key:   []byte(topic),
			Value: data,
		},
	)
}

// Close flushes and releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
