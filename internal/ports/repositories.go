package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopcart/ranking-service/internal/domain"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxRecord is one staged message. A record reaches PUBLISHED at most once
// and its retry count only increases.
type OutboxRecord struct {
	OutboxID     uuid.UUID
	Topic        string
	PartitionKey string
	Payload      []byte
	Status       OutboxStatus
	ErrorMessage string
	RetryCount   int
	CreatedAt    time.Time
}

type OutboxRepository interface {
	// Stage persists a PENDING record. To get the outbox guarantee it must be
	// called on a transaction-scoped repository, see UnitOfWork.
	Stage(ctx context.Context, record OutboxRecord) error
	FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	// FetchRetryable selects FAILED records with retryCount below maxRetries,
	// oldest first.
	FetchRetryable(ctx context.Context, limit, maxRetries int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string) error
}

// EventLedgerRepository is the dedup ledger: an entry's existence is the sole
// source of truth for "this event was already processed".
type EventLedgerRepository interface {
	IsHandled(ctx context.Context, eventID string) (bool, error)
	MarkHandled(ctx context.Context, eventID string, eventType domain.EventType, aggregateKey string, at time.Time) error
}

// ProductMetrics is a per-product, per-day counter row.
type ProductMetrics struct {
	ID          int64
	ProductID   int64
	MetricsDate time.Time
	LikeCount   int64
	ViewCount   int64
	SalesCount  int64
	Version     int64
}

// ProductMetricsRepository mutates daily counters. Increment operations create
// the (product, date) row lazily; a lost create race surfaces as
// domain.ErrVersionConflict and the caller retries.
type ProductMetricsRepository interface {
	IncrementLikeCount(ctx context.Context, productID int64, date time.Time) error
	// DecrementLikeCount floors at zero.
	DecrementLikeCount(ctx context.Context, productID int64, date time.Time) error
	IncrementViewCount(ctx context.Context, productID int64, date time.Time) error
	IncrementSalesCount(ctx context.Context, productID int64, date time.Time, quantity int) error
	// FindByDate pages through all rows for a metrics date using keyset
	// pagination on the row id.
	FindByDate(ctx context.Context, date time.Time, afterID int64, limit int) ([]ProductMetrics, error)
}

// RankRow is a materialized weekly/monthly rank entry. Ranking is nil until
// the Top-100 recomputation assigns it.
type RankRow struct {
	ProductID   int64
	Ranking     *int
	Score       float64
	PeriodStart time.Time
	PeriodEnd   time.Time
	LikeCount   int64
	ViewCount   int64
	SalesCount  int64
}

// MaterializedRankRepository backs one rank table (weekly or monthly).
type MaterializedRankRepository interface {
	// Upsert overwrites score and counters for (product, period), preserving
	// any previously assigned ranking; absent rows are inserted unranked.
	Upsert(ctx context.Context, row RankRow) error
	FindByPeriod(ctx context.Context, period domain.RankingPeriod) ([]RankRow, error)
	UpdateRanking(ctx context.Context, productID int64, period domain.RankingPeriod, ranking int) error
	DeleteByProductAndPeriod(ctx context.Context, productID int64, period domain.RankingPeriod) error
	// FindRankedByPeriod returns rows with an assigned ranking, ordered by
	// ranking ascending, paginated by offset/limit.
	FindRankedByPeriod(ctx context.Context, period domain.RankingPeriod, offset, limit int) ([]RankRow, error)
}

// TxRepositories are the repositories scoped to one storage transaction.
type TxRepositories struct {
	Outbox  OutboxRepository
	Ledger  EventLedgerRepository
	Metrics ProductMetricsRepository
}

// UnitOfWork runs fn inside a single storage transaction. The domain mutation
// and the outbox staging (or the side effect and the ledger write) join the
// same transaction, so they commit or roll back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx TxRepositories) error) error
}
