package ports

import "context"

// EventPublisher sends one serialized event to the message stream. The call
// blocks until the stream acknowledges the write.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte, partitionKey string) error
}
