package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loopcart/ranking-service/internal/ports"
)

// OutboxRelay moves staged outbox records onto the message stream. Pending
// records publish first, then failed records that still have retries left;
// a record whose last retry fails is flagged in the log and left FAILED for
// manual intervention.
type OutboxRelay struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxRelay(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize, maxRetries int) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &OutboxRelay{
		logger: logger, outbox: outbox, publisher: publisher,
		interval: interval, batchSize: batchSize, maxRetries: maxRetries,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_relay",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *OutboxRelay) processOnce(ctx context.Context) error {
	if err := r.PublishPending(ctx, r.batchSize); err != nil {
		return err
	}
	return r.PublishRetryable(ctx, r.batchSize, r.maxRetries)
}

func (r *OutboxRelay) PublishPending(ctx context.Context, batchSize int) error {
	records, err := r.outbox.FetchPending(ctx, batchSize)
	if err != nil {
		return err
	}
	r.publishAll(ctx, records)
	return nil
}

func (r *OutboxRelay) PublishRetryable(ctx context.Context, batchSize, maxRetries int) error {
	records, err := r.outbox.FetchRetryable(ctx, batchSize, maxRetries)
	if err != nil {
		return err
	}
	r.publishAll(ctx, records)
	return nil
}

func (r *OutboxRelay) publishAll(ctx context.Context, records []ports.OutboxRecord) {
	for _, rec := range records {
		r.publishOne(ctx, rec)
	}
}

func (r *OutboxRelay) publishOne(ctx context.Context, rec ports.OutboxRecord) {
	if err := r.publisher.Publish(ctx, rec.Topic, rec.Payload, rec.PartitionKey); err != nil {
		countOutboxFailed()
		if markErr := r.outbox.MarkFailed(ctx, rec.OutboxID, err.Error()); markErr != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox record failed",
				"module", "events.outbox_relay",
				"layer", "adapter",
				"operation", "mark_failed",
				"outcome", "failure",
				"outbox_id", rec.OutboxID.String(),
				"error", markErr,
			)
			return
		}
		// This failure consumed the record's last retry; the fetch queries
		// will not pick it up again, so flag it for manual intervention now.
		if rec.RetryCount+1 >= r.maxRetries {
			r.logger.WarnContext(ctx, "outbox record exhausted retries",
				"module", "events.outbox_relay",
				"layer", "adapter",
				"operation", "mark_failed",
				"outcome", "exhausted",
				"outbox_id", rec.OutboxID.String(),
				"topic", rec.Topic,
				"retry_count", rec.RetryCount+1,
				"error", err,
			)
		}
		return
	}
	countOutboxPublished()
	if markErr := r.outbox.MarkPublished(ctx, rec.OutboxID); markErr != nil {
		r.logger.ErrorContext(ctx, "failed to mark outbox record published",
			"module", "events.outbox_relay",
			"layer", "adapter",
			"operation", "mark_published",
			"outcome", "failure",
			"outbox_id", rec.OutboxID.String(),
			"error", markErr,
		)
	}
}
