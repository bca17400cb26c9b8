package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaProducer is the subset of *kgo.Client used for publishing.
type kafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type kafkaNotifier struct {
	client kafkaProducer
	topic  string
	logger zerolog.Logger
}

// NewKafka creates a notifier that writes events to a Kafka topic keyed by
// order id, so events for one order stay ordered within a partition.
func NewKafka(brokers []string, topic string, logger zerolog.Logger) (Notifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return newKafkaNotifier(client, topic, logger), nil
}

func newKafkaNotifier(client kafkaProducer, topic string, logger zerolog.Logger) *kafkaNotifier {
	return &kafkaNotifier{
		client: client,
		topic:  topic,
		logger: logger.With().Str("notifier", "kafka").Str("topic", topic).Logger(),
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, event Event) error {
	body, err := event.encode()
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(event.key()),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	}

	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce %s for order %d: %w", event.Type, event.OrderID, err)
	}

	n.logger.Debug().
		Str("event", event.Type).
		Int64("order_id", event.OrderID).
		Int32("partition", record.Partition).
		Int64("offset", record.Offset).
		Msg("event produced")
	return nil
}

func (n *kafkaNotifier) Close() error {
	n.client.Close()
	return nil
}
