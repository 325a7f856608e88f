//go:build integration

package module_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"qualityaudit/internal/audit/events"
	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/module"
	"qualityaudit/internal/audit/service"
	"qualityaudit/internal/audit/store/migrations"
	"qualityaudit/internal/platform/config"
	"qualityaudit/internal/platform/kafka"
	id "qualityaudit/pkg/domain"
	qatestutil "qualityaudit/pkg/testutil"
	"qualityaudit/pkg/testutil/containers"
)

type OpenSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	redpanda *containers.RedpandaContainer
}

func TestOpenSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OpenSuite))
}

func (s *OpenSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
}

func (s *OpenSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(migrations.Migrate(ctx, s.postgres.DB))
	s.Require().NoError(s.postgres.TruncateTables(ctx, migrations.Tables...))
}

func (s *OpenSuite) TestLockEventsFlowThroughKafkaIntoPostgres() {
	for _, backend := range []string{config.LockBackendPostgres, config.LockBackendRedis} {
		s.Run(backend, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			cfg, err := config.FromMap(map[string]string{
				"DATABASE_URL":            s.postgres.URL,
				"REDIS_URL":               s.redis.URL,
				"LOCK_BACKEND":            backend,
				"KAFKA_BROKERS":           s.redpanda.Broker,
				"KAFKA_LOCK_EVENTS_TOPIC": "lock-events-" + uuid.NewString(),
				"KAFKA_GROUP_ID":          "projector-" + uuid.NewString(),
				"KAFKA_TOPIC_PARTITIONS":  "1",
			})
			s.Require().NoError(err)

			m, closeModule, err := module.Open(ctx, cfg, nil, prometheus.NewRegistry(),
				service.WithClock(qatestutil.NewClock("2024-06-01")))
			s.Require().NoError(err)
			defer func() { s.NoError(closeModule()) }()

			client := models.Client{ID: id.NewClientID()}
			standard := models.Standard{ID: id.NewStandardID()}
			supervisor := models.Supervisor{ID: id.NewSupervisorID(), AuthorizedStandards: []id.StandardID{standard.ID}}
			c, err := models.NewContract(id.NewContractID(), client.ID, supervisor.ID, true)
			s.Require().NoError(err)
			s.Require().NoError(m.Contracts.Save(ctx, c))

			evaluation, err := m.Recorder.RecordEvaluation(ctx, client, supervisor, standard, models.RatingPositive,
				qatestutil.MustDate("2024-05-01"), qatestutil.MustDate("2025-05-01"))
			s.Require().NoError(err)
			s.Require().NoError(m.Manager.SuspendCurrent(ctx, client.ID, standard.ID))
			s.Require().NoError(m.Manager.UnlockCurrent(ctx, client.ID, standard.ID))

			consumerClient, err := kafka.NewConsumer(cfg.Kafka)
			s.Require().NoError(err)
			defer consumerClient.Close()

			runCtx, stop := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- events.NewKafkaConsumer(consumerClient, m.Projector, nil).Run(runCtx) }()

			s.Eventually(func() bool {
				history, err := m.Projector.History(ctx, evaluation.ID())
				return err == nil && len(history) == 2
			}, 30*time.Second, 100*time.Millisecond)
			stop()
			s.NoError(<-done)

			got, err := m.Finder.Evaluation(ctx, evaluation.ID())
			s.Require().NoError(err)
			s.False(got.IsLocked())
		})
	}
}
