// Package module assembles the quality audit services from configuration.
// Lock events leave the audit store through its outbox; the relay hands
// them to Kafka or to the in-process dispatcher feeding the lock history.
package module

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"qualityaudit/internal/audit/events"
	"qualityaudit/internal/audit/lock"
	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/outbox"
	"qualityaudit/internal/audit/projection"
	"qualityaudit/internal/audit/service"
	"qualityaudit/internal/audit/store/contract"
	"qualityaudit/internal/audit/store/lockhistory"
	"qualityaudit/internal/audit/store/qualityaudit"
	"qualityaudit/internal/platform/config"
	"qualityaudit/pkg/platform/circuit"
)

// dispatchBuffer bounds the in-process event queue used without Kafka.
const dispatchBuffer = 256

// Deps are the connections the module may use. DB, Redis and Producer are
// optional; each nil one selects the in-memory alternative.
type Deps struct {
	Logger   *slog.Logger
	Registry prometheus.Registerer
	DB       *sql.DB
	Redis    redis.UniversalClient
	Producer events.Producer
	Options  []service.Option
}

// ContractStore is the contract repository with write access.
type ContractStore interface {
	service.ContractRepository
	Save(ctx context.Context, c *models.Contract) error
}

// Module holds the assembled services.
type Module struct {
	Contracts ContractStore
	Recorder  *service.AuditRecorder
	Manager   *service.AuditManager
	Finder    *service.EvaluationFinder
	Projector *projection.Projector
	Relay     *outbox.Relay

	dispatcher *events.Dispatcher
}

func New(cfg config.Config, deps Deps) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	metrics := auditmetrics.New(deps.Registry)

	locker, err := newLocker(cfg.Lock, deps)
	if err != nil {
		return nil, err
	}

	var (
		contracts   ContractStore
		audits      service.QualityAuditRepository
		evaluations service.EvaluationRepository
		history     projection.Store
		pending     outbox.Store
	)
	if deps.DB != nil {
		store := qualityaudit.NewPostgres(deps.DB)
		contracts, audits, evaluations = contract.NewPostgres(deps.DB), store, store.Evaluations()
		history, pending = lockhistory.NewPostgres(deps.DB), store.Outbox()
	} else {
		store := qualityaudit.NewInMemoryStore()
		contracts, audits, evaluations = contract.NewInMemoryStore(), store, store.Evaluations()
		history, pending = lockhistory.NewInMemoryStore(), store.Outbox()
	}

	m := &Module{Contracts: contracts}
	m.Projector = projection.New(history,
		projection.WithLogger(logger),
		projection.WithMetrics(metrics),
	)

	var sink outbox.Sink
	if deps.Producer != nil {
		sink = events.NewGuardedPublisher(
			events.NewKafkaPublisher(deps.Producer, cfg.Kafka.Topic, logger),
			circuit.New("kafka-lock-events", circuit.WithCooldown(cfg.Kafka.BreakerCooldown)),
			logger,
		)
	} else {
		m.dispatcher = events.NewDispatcher(m.Projector, dispatchBuffer)
		sink = m.dispatcher
	}
	m.Relay = outbox.New(pending, sink,
		outbox.WithLogger(logger),
		outbox.WithMetrics(metrics),
		outbox.WithInterval(cfg.Outbox.RelayInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
	)

	opts := append([]service.Option{
		service.WithLogger(logger),
		service.WithMetrics(metrics),
		service.WithLocker(locker),
		service.WithEventRelay(m.Relay),
	}, deps.Options...)

	m.Recorder = service.NewAuditRecorder(contracts, audits, opts...)
	m.Manager = service.NewAuditManager(contracts, audits, opts...)
	m.Finder = service.NewEvaluationFinder(evaluations, audits, opts...)
	return m, nil
}

// Run retries outbox entries left behind by failed flushes and, without
// Kafka, drains the in-process queue into the projector until ctx ends.
// With Kafka the projector runs in its own worker.
func (m *Module) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Relay.Run(gctx)
	})
	if m.dispatcher != nil {
		g.Go(func() error {
			return m.dispatcher.Run(gctx)
		})
	}
	return g.Wait()
}

func newLocker(cfg config.Lock, deps Deps) (service.KeyLocker, error) {
	switch cfg.Backend {
	case config.LockBackendMemory, "":
		return lock.NewSharded(cfg.TTL), nil
	case config.LockBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("lock backend %q requires a redis client", cfg.Backend)
		}
		return lock.NewRedis(deps.Redis, cfg.TTL, cfg.RetryInterval), nil
	case config.LockBackendPostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("lock backend %q requires a database", cfg.Backend)
		}
		return lock.NewPostgres(deps.DB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
