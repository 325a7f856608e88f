package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

// Handler applies one decoded lock event.
type Handler interface {
	Handle(ctx context.Context, eventID id.EventID, event models.Event) error
}

// Fetcher is the subset of *kgo.Client the consumer needs.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// KafkaConsumer polls the lock events topic and hands each record to the
// handler. Offsets are committed after the whole poll was handled, so a
// crash redelivers at least the uncommitted batch; the handler must be
// idempotent per event id.
type KafkaConsumer struct {
	fetcher Fetcher
	handler Handler
	logger  *slog.Logger
}

func NewKafkaConsumer(fetcher Fetcher, handler Handler, logger *slog.Logger) *KafkaConsumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &KafkaConsumer{fetcher: fetcher, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or the client is closed. A handler
// failure stops the loop without committing the batch.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		fetches := c.fetcher.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handle(ctx, r)
		})
		if handleErr != nil {
			if errors.Is(handleErr, context.Canceled) {
				return nil
			}
			return handleErr
		}

		if err := c.fetcher.CommitUncommittedOffsets(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offsets: %w", err)
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, r *kgo.Record) error {
	eventID, event, err := Decode(r.Value)
	if err != nil {
		c.logger.WarnContext(ctx, "skipping malformed lock event",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
			"key", string(r.Key),
			"error", err,
		)
		return nil // Commit to avoid redelivery
	}
	if err := c.handler.Handle(ctx, eventID, event); err != nil {
		return fmt.Errorf("handle lock event %s: %w", eventID, err)
	}
	return nil
}
