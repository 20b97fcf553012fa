package ports

import (
	"context"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
)

// RankingEntry is one member of the live per-day ranking structure.
type RankingEntry struct {
	ProductID int64
	Score     float64
}

// RankingStore is the real-time per-day sorted ranking structure. Score
// increments are atomic at the store level; no caller-side locking is needed.
type RankingStore interface {
	IncrementScore(ctx context.Context, date time.Time, productID int64, weight domain.Weight) error
	// CarryOverScore additively seeds toDate with fromDate's scores scaled by
	// the carry-over weight. The source day is left untouched. Returns the
	// number of members seeded.
	CarryOverScore(ctx context.Context, fromDate, toDate time.Time) (int, error)
	// Range returns members in descending score order for the inclusive
	// zero-based rank window [start, end].
	Range(ctx context.Context, date time.Time, start, end int64) ([]RankingEntry, error)
	// Rank returns the 1-based rank of a product, or false when absent.
	Rank(ctx context.Context, date time.Time, productID int64) (int64, bool, error)
}

// CarryOverMarker guards the daily carry-over against double-seeding: only the
// first Acquire for a day pair succeeds within the retention window. Release
// gives the marker back when seeding fails, leaving the day pair retryable.
type CarryOverMarker interface {
	Acquire(ctx context.Context, fromDate, toDate time.Time, ttl time.Duration) (bool, error)
	Release(ctx context.Context, fromDate, toDate time.Time) error
}

// ProductCache invalidates read-through product detail entries. It is a side
// collaborator of the stock-depleted event, not ranking state.
type ProductCache interface {
	Invalidate(ctx context.Context, productID int64) error
}
