package events

import (
	"context"
	"log/slog"

	"github.com/loopcart/ranking-service/internal/domain"
)

// LoggingPublisher stands in for the stream when no brokers are configured.
// It decodes the envelope so local runs still show which event left the
// outbox.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, topic string, payload []byte, partitionKey string) error {
	attrs := []any{
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"topic", topic,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	}
	if event, err := domain.DecodeEvent(topic, payload); err == nil {
		attrs = append(attrs, "event_id", event.ID())
	}
	p.logger.InfoContext(ctx, "event published", attrs...)
	return nil
}
