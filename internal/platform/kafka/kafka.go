package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"qualityaudit/internal/platform/config"
)

// NewProducer builds a client for producing to the configured topic.
func NewProducer(cfg config.Kafka, opts ...kgo.Opt) (*kgo.Client, error) {
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return client, nil
}

// NewConsumer builds a group consumer with manual offset commits.
func NewConsumer(cfg config.Kafka, opts ...kgo.Opt) (*kgo.Client, error) {
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return client, nil
}

// EnsureTopic creates the configured topic when it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, cfg config.Kafka) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, cfg.Partitions, cfg.ReplicationFactor, nil, cfg.Topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", cfg.Topic, err)
	}
	for _, topic := range resp.Sorted() {
		if topic.Err != nil && !errors.Is(topic.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic.Topic, topic.Err)
		}
	}
	return nil
}

// Ping checks that at least one broker answers a metadata request.
func Ping(ctx context.Context, client *kgo.Client) error {
	return client.Ping(ctx)
}
