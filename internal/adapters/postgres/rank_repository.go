package postgres

import (
	"context"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
	"gorm.io/gorm"
)

// materializedRankRepository serves one of the two rank tables; the table name
// is bound at construction.
type materializedRankRepository struct {
	db    *gorm.DB
	table string
}

func (r *materializedRankRepository) Upsert(ctx context.Context, row ports.RankRow) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Table(r.table).
		Where("product_id = ? AND period_start_date = ? AND period_end_date = ?",
			row.ProductID, dateOnly(row.PeriodStart), dateOnly(row.PeriodEnd)).
		Updates(map[string]any{
			"score":       row.Score,
			"like_count":  row.LikeCount,
			"view_count":  row.ViewCount,
			"sales_count": row.SalesCount,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec := rankRowModel{
		ProductID:   row.ProductID,
		Ranking:     nil,
		Score:       row.Score,
		PeriodStart: dateOnly(row.PeriodStart),
		PeriodEnd:   dateOnly(row.PeriodEnd),
		LikeCount:   row.LikeCount,
		ViewCount:   row.ViewCount,
		SalesCount:  row.SalesCount,
		UpdatedAt:   now,
	}
	err := r.db.WithContext(ctx).Table(r.table).Create(&rec).Error
	if isUniqueViolation(err) {
		// Concurrent upsert created the row first; overwrite its metrics.
		return r.db.WithContext(ctx).Table(r.table).
			Where("product_id = ? AND period_start_date = ? AND period_end_date = ?",
				row.ProductID, dateOnly(row.PeriodStart), dateOnly(row.PeriodEnd)).
			Updates(map[string]any{
				"score":       row.Score,
				"like_count":  row.LikeCount,
				"view_count":  row.ViewCount,
				"sales_count": row.SalesCount,
				"updated_at":  now,
			}).Error
	}
	return err
}

func (r *materializedRankRepository) FindByPeriod(ctx context.Context, period domain.RankingPeriod) ([]ports.RankRow, error) {
	var rows []rankRowModel
	err := r.db.WithContext(ctx).Table(r.table).
		Where("period_start_date = ? AND period_end_date = ?", dateOnly(period.Start), dateOnly(period.End)).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRankRows(rows), nil
}

func (r *materializedRankRepository) UpdateRanking(ctx context.Context, productID int64, period domain.RankingPeriod, ranking int) error {
	return r.db.WithContext(ctx).Table(r.table).
		Where("product_id = ? AND period_start_date = ? AND period_end_date = ?",
			productID, dateOnly(period.Start), dateOnly(period.End)).
		Updates(map[string]any{
			"ranking":    ranking,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *materializedRankRepository) DeleteByProductAndPeriod(ctx context.Context, productID int64, period domain.RankingPeriod) error {
	return r.db.WithContext(ctx).Table(r.table).
		Where("product_id = ? AND period_start_date = ? AND period_end_date = ?",
			productID, dateOnly(period.Start), dateOnly(period.End)).
		Delete(&rankRowModel{}).Error
}

func (r *materializedRankRepository) FindRankedByPeriod(ctx context.Context, period domain.RankingPeriod, offset, limit int) ([]ports.RankRow, error) {
	var rows []rankRowModel
	err := r.db.WithContext(ctx).Table(r.table).
		Where("period_start_date = ? AND period_end_date = ? AND ranking IS NOT NULL",
			dateOnly(period.Start), dateOnly(period.End)).
		Order("ranking asc").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRankRows(rows), nil
}

func toRankRows(rows []rankRowModel) []ports.RankRow {
	out := make([]ports.RankRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.RankRow{
			ProductID:   row.ProductID,
			Ranking:     row.Ranking,
			Score:       row.Score,
			PeriodStart: row.PeriodStart,
			PeriodEnd:   row.PeriodEnd,
			LikeCount:   row.LikeCount,
			ViewCount:   row.ViewCount,
			SalesCount:  row.SalesCount,
		})
	}
	return out
}

var _ ports.MaterializedRankRepository = (*materializedRankRepository)(nil)
