package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"qualityaudit/internal/audit/events"
	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/projection"
	"qualityaudit/internal/audit/store/lockhistory"
	"qualityaudit/internal/audit/store/migrations"
	"qualityaudit/internal/platform/config"
	"qualityaudit/internal/platform/database"
	"qualityaudit/internal/platform/httpserver"
	"qualityaudit/internal/platform/kafka"
	"qualityaudit/internal/platform/logger"
	"qualityaudit/internal/platform/metrics"
)

// main consumes lock events from Kafka into the lock history and serves the
// ops endpoints until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("lock history projector stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if !cfg.Kafka.Enabled() {
		return errors.New("KAFKA_BROKERS is required")
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	var store projection.Store = lockhistory.NewInMemoryStore()
	checks := []readinessCheck{}
	if db != nil {
		defer db.Close()
		if cfg.Database.MigrateOnStart {
			if err := migrations.Migrate(ctx, db); err != nil {
				return err
			}
		}
		store = lockhistory.NewPostgres(db)
		checks = append(checks, readinessCheck{name: "postgres", check: db.PingContext})
	} else {
		log.Warn("DATABASE_URL not set, lock history is kept in memory")
	}

	reg := metrics.NewRegistry()
	projector := projection.New(store,
		projection.WithLogger(log),
		projection.WithMetrics(auditmetrics.New(reg)),
	)

	client, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka); err != nil {
		return err
	}
	checks = append(checks, readinessCheck{name: "kafka", check: func(ctx context.Context) error {
		return kafka.Ping(ctx, client)
	}})

	consumer := events.NewKafkaConsumer(client, projector, log)
	srv := httpserver.New(cfg.Server.Addr, newOpsRouter(reg, projector, checks), cfg.Server.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ops server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("consuming lock events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
