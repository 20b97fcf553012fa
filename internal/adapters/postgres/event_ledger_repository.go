package postgres

import (
	"context"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
	"gorm.io/gorm"
)

type eventLedgerRepository struct {
	db *gorm.DB
}

func (r *eventLedgerRepository) IsHandled(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&eventHandledModel{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *eventLedgerRepository) MarkHandled(ctx context.Context, eventID string, eventType domain.EventType, aggregateKey string, at time.Time) error {
	rec := eventHandledModel{
		EventID:      eventID,
		EventType:    string(eventType),
		AggregateKey: aggregateKey,
		HandledAt:    at,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if isUniqueViolation(err) {
		// A concurrent consumer won the race; the event is handled either way.
		return nil
	}
	return err
}

var _ ports.EventLedgerRepository = (*eventLedgerRepository)(nil)
