package postgres

import (
	"time"

	"github.com/google/uuid"
)

type outboxModel struct {
	OutboxID     uuid.UUID `gorm:"column:outbox_id;type:uuid;primaryKey"`
	Topic        string    `gorm:"column:topic"`
	PartitionKey string    `gorm:"column:partition_key"`
	Payload      string    `gorm:"column:payload"`
	Status       string    `gorm:"column:status"`
	ErrorMessage string    `gorm:"column:error_message"`
	RetryCount   int       `gorm:"column:retry_count"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (outboxModel) TableName() string { return "outbox" }

type eventHandledModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EventID      string    `gorm:"column:event_id"`
	EventType    string    `gorm:"column:event_type"`
	AggregateKey string    `gorm:"column:aggregate_key"`
	HandledAt    time.Time `gorm:"column:handled_at"`
}

func (eventHandledModel) TableName() string { return "event_handled" }

type productMetricsModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID   int64     `gorm:"column:product_id"`
	MetricsDate time.Time `gorm:"column:metrics_date"`
	LikeCount   int64     `gorm:"column:like_count"`
	ViewCount   int64     `gorm:"column:view_count"`
	SalesCount  int64     `gorm:"column:sales_count"`
	Version     int64     `gorm:"column:version"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productMetricsModel) TableName() string { return "product_metrics" }

// rankRowModel is shared by the weekly and monthly materialized tables; the
// repository binds the concrete table name.
type rankRowModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID   int64     `gorm:"column:product_id"`
	Ranking     *int      `gorm:"column:ranking"`
	Score       float64   `gorm:"column:score"`
	PeriodStart time.Time `gorm:"column:period_start_date"`
	PeriodEnd   time.Time `gorm:"column:period_end_date"`
	LikeCount   int64     `gorm:"column:like_count"`
	ViewCount   int64     `gorm:"column:view_count"`
	SalesCount  int64     `gorm:"column:sales_count"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}
