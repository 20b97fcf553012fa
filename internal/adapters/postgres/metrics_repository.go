package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productMetricsRepository struct {
	db *gorm.DB
}

func (r *productMetricsRepository) IncrementLikeCount(ctx context.Context, productID int64, date time.Time) error {
	return r.increment(ctx, productID, date, map[string]any{
		"like_count": gorm.Expr("like_count + 1"),
	}, func(m *productMetricsModel) { m.LikeCount = 1 })
}

func (r *productMetricsRepository) DecrementLikeCount(ctx context.Context, productID int64, date time.Time) error {
	res := r.db.WithContext(ctx).Model(&productMetricsModel{}).
		Where("product_id = ? AND metrics_date = ?", productID, dateOnly(date)).
		Updates(map[string]any{
			"like_count": gorm.Expr("GREATEST(like_count - 1, 0)"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	// An unlike for a product with no counters yet is a no-op, not an error.
	return nil
}

func (r *productMetricsRepository) IncrementViewCount(ctx context.Context, productID int64, date time.Time) error {
	return r.increment(ctx, productID, date, map[string]any{
		"view_count": gorm.Expr("view_count + 1"),
	}, func(m *productMetricsModel) { m.ViewCount = 1 })
}

func (r *productMetricsRepository) IncrementSalesCount(ctx context.Context, productID int64, date time.Time, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return r.increment(ctx, productID, date, map[string]any{
		"sales_count": gorm.Expr("sales_count + ?", quantity),
	}, func(m *productMetricsModel) { m.SalesCount = int64(quantity) })
}

// increment applies an atomic counter update, creating the (product, date) row
// on first touch. The insert is ON CONFLICT DO NOTHING so losing the create
// race to a concurrent consumer cannot abort a surrounding transaction; the
// loser sees domain.ErrVersionConflict and its retry lands on the update path
// against the row the winner created.
func (r *productMetricsRepository) increment(ctx context.Context, productID int64, date time.Time, updates map[string]any, seed func(*productMetricsModel)) error {
	now := time.Now().UTC()
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now
	res := r.db.WithContext(ctx).Model(&productMetricsModel{}).
		Where("product_id = ? AND metrics_date = ?", productID, dateOnly(date)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec := productMetricsModel{
		ProductID:   productID,
		MetricsDate: dateOnly(date),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	seed(&rec)
	res = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "metrics_date"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product_metrics product=%d date=%s", domain.ErrVersionConflict, productID, date.Format("2006-01-02"))
	}
	return nil
}

func (r *productMetricsRepository) FindByDate(ctx context.Context, date time.Time, afterID int64, limit int) ([]ports.ProductMetrics, error) {
	var rows []productMetricsModel
	err := r.db.WithContext(ctx).
		Where("metrics_date = ? AND id > ?", dateOnly(date), afterID).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.ProductMetrics, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.ProductMetrics{
			ID:          row.ID,
			ProductID:   row.ProductID,
			MetricsDate: row.MetricsDate,
			LikeCount:   row.LikeCount,
			ViewCount:   row.ViewCount,
			SalesCount:  row.SalesCount,
			Version:     row.Version,
		})
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ ports.ProductMetricsRepository = (*productMetricsRepository)(nil)
