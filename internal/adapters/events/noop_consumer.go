package events

import "context"

// NoopConsumer keeps the worker loop alive when no brokers are configured.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer { return &NoopConsumer{} }

func (c *NoopConsumer) Poll(ctx context.Context, maxMessages int) ([]Message, error) {
	return nil, nil
}

func (c *NoopConsumer) Commit(ctx context.Context, msgs []Message) error { return nil }

func (c *NoopConsumer) Close() error { return nil }
