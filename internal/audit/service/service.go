// Package service holds the application services of the quality audit
// context: recording evaluations, managing the current evaluation of an
// audit, and reading evaluations back.
//
// Every mutating command runs under the audit's key lock and saves the whole
// aggregate. The save also stores the pending lock events in the outbox; once
// the lock is released the command asks the EventRelay to deliver them. A
// failed delivery does not fail the committed command.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"qualityaudit/internal/audit/lock"
	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
	"qualityaudit/pkg/platform/clock"
	"qualityaudit/pkg/platform/sentinel"
)

const tracerName = "qualityaudit/internal/audit/service"

type serviceConfig struct {
	logger  *slog.Logger
	metrics *auditmetrics.Metrics
	locker  KeyLocker
	relay   EventRelay
	clock   clock.Clock
	tracer  trace.Tracer
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithLocker replaces the default in-process locker, e.g. with a Redis or
// PostgreSQL one when several processes write the same audits.
func WithLocker(locker KeyLocker) Option {
	return func(c *serviceConfig) {
		c.locker = locker
	}
}

// WithEventRelay sets the relay flushed after lock transitions. Without one
// the events wait in the outbox for an external relay.
func WithEventRelay(relay EventRelay) Option {
	return func(c *serviceConfig) {
		c.relay = relay
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *serviceConfig) {
		c.clock = clk
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = tracer
	}
}

func newConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.locker == nil {
		cfg.locker = lock.NewSharded(0)
	}
	if cfg.clock == nil {
		cfg.clock = clock.System{}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	return cfg
}

// auditKey names the lock guarding one (client, standard) aggregate.
func auditKey(clientID id.ClientID, standardID id.StandardID) string {
	return "audit:" + clientID.String() + ":" + standardID.String()
}

func (c *serviceConfig) startSpan(ctx context.Context, name string, clientID id.ClientID, standardID id.StandardID) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("client_id", clientID.String()),
		attribute.String("standard_id", standardID.String()),
	))
}

// finish records err on the span, counts rule rejections and ends the span.
func (c *serviceConfig) finish(ctx context.Context, span trace.Span, command string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if isRejection(err) {
		c.incrementRejected(command)
		c.logger.InfoContext(ctx, "command rejected", "command", command, "reason", err.Error())
		return
	}
	c.logger.ErrorContext(ctx, "command failed", "command", command, "error", err)
}

// loadAudit fetches the aggregate or reports ErrAuditNotFound.
func (c *serviceConfig) loadAudit(ctx context.Context, audits QualityAuditRepository, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error) {
	audit, err := audits.FindFor(ctx, clientID, standardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrAuditNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit")
	}
	return audit, nil
}

func saveAudit(ctx context.Context, audits QualityAuditRepository, audit *models.QualityAudit) error {
	if err := audits.Save(ctx, audit); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "audit was modified concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save audit")
	}
	return nil
}

// flush hands stored events to the relay. The command already committed, so
// a failure is logged and the entries stay in the outbox.
func (c *serviceConfig) flush(ctx context.Context) {
	if c.relay == nil {
		c.logger.DebugContext(ctx, "no event relay configured, lock events wait in the outbox")
		return
	}
	if _, err := c.relay.Flush(ctx); err != nil {
		c.logger.WarnContext(ctx, "lock events left in the outbox", "error", err)
	}
}

func (c *serviceConfig) hasActiveContract(ctx context.Context, contracts ContractRepository, clientID id.ClientID, supervisorID id.SupervisorID) error {
	ok, err := contracts.HasActiveContract(ctx, clientID, supervisorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contract")
	}
	if !ok {
		return models.ErrNoActiveContract
	}
	return nil
}

// isRejection separates refused commands from infrastructure failures.
func isRejection(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeInvariantViolation, dErrors.CodeConflict,
		dErrors.CodeNotFound, dErrors.CodeInvalidInput:
		return true
	default:
		return false
	}
}

func (c *serviceConfig) incrementRejected(command string) {
	if c.metrics != nil {
		c.metrics.IncrementRejected(command)
	}
}

func (c *serviceConfig) incrementLockTransition(action string) {
	if c.metrics != nil {
		c.metrics.IncrementLockTransition(action)
	}
}
