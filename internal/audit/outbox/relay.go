// Package outbox relays lock events that were stored with their aggregate
// save to the event sink. An entry leaves the outbox only after the sink
// accepted it, so a failed delivery is retried on the next flush with the
// same event id.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
)

// Store is the outbox written by the audit stores.
type Store interface {
	Pending(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkDelivered(ctx context.Context, eventIDs []id.EventID) error
}

// Sink accepts a batch in order. Delivery is at least once; sinks must
// tolerate an entry they have already seen.
type Sink interface {
	Publish(ctx context.Context, entries []models.OutboxEntry) error
}

type Relay struct {
	store     Store
	sink      Sink
	logger    *slog.Logger
	metrics   *auditmetrics.Metrics
	batchSize int
	interval  time.Duration

	// one flush at a time keeps entries in outbox order
	mu sync.Mutex
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithInterval sets how often Run retries entries left behind.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func New(store Store, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		sink:      sink,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Flush delivers pending entries batch by batch until the outbox is empty.
// It returns how many entries were delivered, and stops at the first batch
// the sink rejects.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for {
		entries, err := r.store.Pending(ctx, r.batchSize)
		if err != nil {
			r.recordFailure()
			return delivered, fmt.Errorf("read outbox: %w", err)
		}
		if len(entries) == 0 {
			return delivered, nil
		}
		if err := r.sink.Publish(ctx, entries); err != nil {
			r.recordFailure()
			return delivered, fmt.Errorf("relay lock events: %w", err)
		}
		eventIDs := make([]id.EventID, 0, len(entries))
		for _, e := range entries {
			eventIDs = append(eventIDs, e.EventID)
		}
		if err := r.store.MarkDelivered(ctx, eventIDs); err != nil {
			r.recordFailure()
			return delivered, fmt.Errorf("acknowledge outbox: %w", err)
		}
		delivered += len(entries)
		if r.metrics != nil {
			r.metrics.AddRelayed(len(entries))
		}
		if len(entries) < r.batchSize {
			return delivered, nil
		}
	}
}

// Run flushes on every interval until ctx ends. Failed flushes are logged;
// their entries stay for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := r.Flush(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.WarnContext(ctx, "outbox flush failed", "delivered", n, "error", err)
				continue
			}
			if n > 0 {
				r.logger.DebugContext(ctx, "outbox flushed", "delivered", n)
			}
		}
	}
}

func (r *Relay) recordFailure() {
	if r.metrics != nil {
		r.metrics.IncrementOutboxFailure()
	}
}
