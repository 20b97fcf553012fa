package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/loopcart/ranking-service/internal/ports"
)

type memoryOutbox struct {
	records []ports.OutboxRecord
}

func (m *memoryOutbox) Stage(_ context.Context, record ports.OutboxRecord) error {
	if record.OutboxID == uuid.Nil {
		record.OutboxID = uuid.New()
	}
	record.Status = ports.OutboxPending
	m.records = append(m.records, record)
	return nil
}

func (m *memoryOutbox) FetchPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	var out []ports.OutboxRecord
	for _, rec := range m.records {
		if rec.Status == ports.OutboxPending && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryOutbox) FetchRetryable(_ context.Context, limit, maxRetries int) ([]ports.OutboxRecord, error) {
	var out []ports.OutboxRecord
	for _, rec := range m.records {
		if rec.Status == ports.OutboxFailed && rec.RetryCount < maxRetries && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryOutbox) MarkPublished(_ context.Context, outboxID uuid.UUID) error {
	for i := range m.records {
		if m.records[i].OutboxID == outboxID {
			m.records[i].Status = ports.OutboxPublished
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *memoryOutbox) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string) error {
	for i := range m.records {
		if m.records[i].OutboxID == outboxID {
			m.records[i].Status = ports.OutboxFailed
			m.records[i].ErrorMessage = errMsg
			m.records[i].RetryCount++
			return nil
		}
	}
	return errors.New("record not found")
}

type scriptedPublisher struct {
	failures  int
	published []string
}

func (p *scriptedPublisher) Publish(_ context.Context, topic string, _ []byte, _ string) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, topic)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRelayPublishesPendingRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	outbox := &memoryOutbox{}
	publisher := &scriptedPublisher{}
	relay := NewOutboxRelay(testLogger(), outbox, publisher, time.Second, 100, 3)

	_ = outbox.Stage(ctx, ports.OutboxRecord{Topic: "product-liked-events", PartitionKey: "1", Payload: []byte("{}")})
	_ = outbox.Stage(ctx, ports.OutboxRecord{Topic: "product-viewed-events", PartitionKey: "2", Payload: []byte("{}")})

	if err := relay.processOnce(ctx); err != nil {
		t.Fatalf("process once: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(publisher.published))
	}
	for _, rec := range outbox.records {
		if rec.Status != ports.OutboxPublished {
			t.Fatalf("expected all records PUBLISHED, got %+v", rec)
		}
	}
}

func TestRelayMarksFailureAndRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	outbox := &memoryOutbox{}
	publisher := &scriptedPublisher{failures: 1}
	relay := NewOutboxRelay(testLogger(), outbox, publisher, time.Second, 100, 3)

	_ = outbox.Stage(ctx, ports.OutboxRecord{Topic: "order-paid-events", PartitionKey: "ord-1", Payload: []byte("{}")})

	if err := relay.PublishPending(ctx, 100); err != nil {
		t.Fatalf("publish pending: %v", err)
	}
	rec := outbox.records[0]
	if rec.Status != ports.OutboxFailed || rec.RetryCount != 1 || rec.ErrorMessage == "" {
		t.Fatalf("expected FAILED with retry count 1, got %+v", rec)
	}

	// The broker recovers; the retry pass publishes the record.
	if err := relay.PublishRetryable(ctx, 100, 3); err != nil {
		t.Fatalf("publish retryable: %v", err)
	}
	if got := outbox.records[0].Status; got != ports.OutboxPublished {
		t.Fatalf("expected PUBLISHED after retry, got %s", got)
	}
}

func TestRelayLogsAndParksExhaustedRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	outbox := &memoryOutbox{}
	publisher := &scriptedPublisher{failures: 10}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	relay := NewOutboxRelay(logger, outbox, publisher, time.Second, 100, 3)

	_ = outbox.Stage(ctx, ports.OutboxRecord{Topic: "order-created-events", PartitionKey: "ord-2", Payload: []byte("{}")})

	for i := 0; i < 5; i++ {
		if err := relay.processOnce(ctx); err != nil {
			t.Fatalf("process once %d: %v", i, err)
		}
	}

	rec := outbox.records[0]
	if rec.Status != ports.OutboxFailed {
		t.Fatalf("expected terminal FAILED, got %s", rec.Status)
	}
	if rec.RetryCount != 3 {
		t.Fatalf("expected retry count capped at 3, got %d", rec.RetryCount)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected nothing published, got %v", publisher.published)
	}
	// Exhaustion is not silent: exactly one warning when the cap is crossed.
	if got := strings.Count(logs.String(), "outbox record exhausted retries"); got != 1 {
		t.Fatalf("expected 1 exhaustion warning, got %d in %q", got, logs.String())
	}
}
