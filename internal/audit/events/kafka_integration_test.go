//go:build integration

package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"qualityaudit/internal/audit/events"
	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/projection"
	"qualityaudit/internal/audit/store/lockhistory"
	"qualityaudit/internal/platform/config"
	"qualityaudit/internal/platform/kafka"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/testutil/containers"
)

type KafkaRoundTripSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaRoundTripSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaRoundTripSuite))
}

func (s *KafkaRoundTripSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaRoundTripSuite) kafkaConfig() config.Kafka {
	return config.Kafka{
		Brokers:           []string{s.redpanda.Broker},
		Topic:             "lock-events-" + uuid.NewString(),
		GroupID:           "projector-" + uuid.NewString(),
		Partitions:        1,
		ReplicationFactor: 1,
	}
}

func (s *KafkaRoundTripSuite) TestPublishedEventsReachTheProjection() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cfg := s.kafkaConfig()

	producer, err := kafka.NewProducer(cfg)
	s.Require().NoError(err)
	defer producer.Close()
	s.Require().NoError(kafka.EnsureTopic(ctx, producer, cfg))

	evaluationID := id.NewEvaluationID()
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	publisher := events.NewKafkaPublisher(producer, cfg.Topic, nil)
	s.Require().NoError(publisher.Publish(ctx, models.NewOutboxEntries([]models.Event{
		models.EvaluationSuspended{Evaluation: evaluationID, SuspendedAt: at},
		models.EvaluationUnlocked{Evaluation: evaluationID, UnlockedAt: at.Add(time.Hour)},
	})))

	// a malformed record sits in the same partition and must not stall the consumer
	s.Require().NoError(producer.ProduceSync(ctx, &kgo.Record{Topic: cfg.Topic, Value: []byte("broken")}).FirstErr())

	consumerClient, err := kafka.NewConsumer(cfg)
	s.Require().NoError(err)
	defer consumerClient.Close()

	store := lockhistory.NewInMemoryStore()
	projector := projection.New(store)
	consumer := events.NewKafkaConsumer(consumerClient, projector, nil)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(runCtx) }()

	s.Eventually(func() bool {
		history, err := store.FindByEvaluationID(ctx, evaluationID)
		return err == nil && len(history) == 2
	}, 20*time.Second, 100*time.Millisecond)

	stop()
	s.NoError(<-done)

	history, err := store.FindByEvaluationID(ctx, evaluationID)
	s.Require().NoError(err)
	s.Equal(models.LockActionSuspended, history[0].Action)
	s.Equal(models.LockActionUnlocked, history[1].Action)
}
