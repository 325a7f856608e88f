package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"qualityaudit/internal/audit/models"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes lock events to the lock events topic. Records are
// keyed by evaluation id, so every event of one evaluation lands on the same
// partition and keeps its order.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish produces the batch and waits for every acknowledgement. The
// outbox event id travels in the envelope and the event_id header.
func (p *KafkaPublisher) Publish(ctx context.Context, entries []models.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(entries))
	for _, entry := range entries {
		value, err := Encode(entry.EventID, entry.Event)
		if err != nil {
			return err
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(entry.Event.EvaluationID().String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(entry.EventID.String())},
			},
		})
	}

	if err := p.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce lock events: %w", err)
	}
	p.logger.DebugContext(ctx, "lock events produced", "topic", p.topic, "count", len(records))
	return nil
}
