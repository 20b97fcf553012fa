package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopcart/ranking-service/internal/ports"
	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Stage(ctx context.Context, record ports.OutboxRecord) error {
	id := record.OutboxID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	rec := outboxModel{
		OutboxID:     id,
		Topic:        record.Topic,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		Status:       string(ports.OutboxPending),
		RetryCount:   0,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(ports.OutboxPending)).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOutboxRecords(rows), nil
}

func (r *outboxRepository) FetchRetryable(ctx context.Context, limit, maxRetries int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", string(ports.OutboxFailed), maxRetries).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOutboxRecords(rows), nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":     string(ports.OutboxPublished),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string) error {
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":        string(ports.OutboxFailed),
			"error_message": errMsg,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"updated_at":    time.Now().UTC(),
		}).Error
}

func toOutboxRecords(rows []outboxModel) []ports.OutboxRecord {
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.OutboxRecord{
			OutboxID:     row.OutboxID,
			Topic:        row.Topic,
			PartitionKey: row.PartitionKey,
			Payload:      []byte(row.Payload),
			Status:       ports.OutboxStatus(row.Status),
			ErrorMessage: row.ErrorMessage,
			RetryCount:   row.RetryCount,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out
}

var _ ports.OutboxRepository = (*outboxRepository)(nil)
