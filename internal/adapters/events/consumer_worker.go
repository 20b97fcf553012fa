package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/loopcart/ranking-service/internal/application"
	"github.com/loopcart/ranking-service/internal/domain"
)

type Message struct {
	Topic   string
	Payload []byte
	raw     kafka.Message
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
	Commit(ctx context.Context, msgs []Message) error
}

// ConsumerWorker drains event batches and applies them through the idempotent
// handler. A batch is acknowledged only after every message in it has been
// applied or skipped; an infrastructure failure mid-batch leaves the offset
// untouched so the whole batch is redelivered.
type ConsumerWorker struct {
	logger    *slog.Logger
	consumer  Consumer
	handler   *application.Service
	interval  time.Duration
	batchSize int
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler *application.Service, interval time.Duration, batchSize int) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, handler: handler, interval: interval, batchSize: batchSize,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
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

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	for _, msg := range msgs {
		outcome, handleErr := w.handler.HandleEvent(ctx, msg.Topic, msg.Payload)
		if handleErr != nil {
			if errors.Is(handleErr, domain.ErrInvalidInput) {
				// Malformed or unknown payload: skip the message, keep the batch.
				countConsumed(msg.Topic, "malformed")
				w.logger.WarnContext(ctx, "skipping malformed event",
					"module", "events.consumer_worker",
					"layer", "adapter",
					"operation", "handle_event",
					"outcome", "skipped",
					"topic", msg.Topic,
					"error", handleErr,
				)
				continue
			}
			// Infrastructure failure: abort without committing so the stream
			// redelivers the batch; already-applied messages dedup via the ledger.
			countConsumed(msg.Topic, "failure")
			return handleErr
		}
		countConsumed(msg.Topic, string(outcome))
	}

	return w.consumer.Commit(ctx, msgs)
}
