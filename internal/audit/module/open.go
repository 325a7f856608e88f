package module

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"qualityaudit/internal/audit/service"
	"qualityaudit/internal/audit/store/migrations"
	"qualityaudit/internal/platform/config"
	"qualityaudit/internal/platform/database"
	"qualityaudit/internal/platform/kafka"
	redisclient "qualityaudit/internal/platform/redis"
)

// Open connects to whatever cfg configures and assembles the module. The
// returned close function releases every connection that was opened.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, opts ...service.Option) (*Module, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Module, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	deps := Deps{Logger: logger, Registry: reg, Options: opts}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fail(err)
	}
	if db != nil {
		closers = append(closers, db.Close)
		if cfg.Database.MigrateOnStart {
			if err := migrations.Migrate(ctx, db); err != nil {
				return fail(err)
			}
		}
		deps.DB = db
	}

	if cfg.Lock.Backend == config.LockBackendRedis {
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return fail(err)
		}
		if client != nil {
			closers = append(closers, client.Close)
			deps.Redis = client.Client
		}
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { producer.Close(); return nil })
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka); err != nil {
			return fail(err)
		}
		deps.Producer = producer
	}

	m, err := New(cfg, deps)
	if err != nil {
		return fail(err)
	}
	return m, closeAll, nil
}
