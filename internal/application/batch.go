package application

import (
	"context"
	"sort"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

// BatchResult summarizes one materialized ranking run.
type BatchResult struct {
	Period   domain.RankingPeriod
	Upserted int
	Skipped  int
	Ranked   int
	Pruned   int
}

// RunRankingJob materializes the weekly or monthly ranking for the period
// containing targetDate. Phase 1 folds targetDate's metrics into the period
// rows chunk by chunk; a failure on one product is logged and skipped, not
// fatal. Phase 2 recomputes the Top-100 from scratch for the whole period and
// prunes everything below the bracket, so rerunning the job repairs any
// partial phase 1 state.
func (s *Service) RunRankingJob(ctx context.Context, targetDate time.Time, rankingType domain.RankingType) (BatchResult, error) {
	period := domain.PeriodOf(rankingType, targetDate)
	table := s.rankTable(rankingType)
	result := BatchResult{Period: period}

	if err := s.upsertPeriodMetrics(ctx, table, targetDate, period, &result); err != nil {
		return result, err
	}
	if err := s.recomputeTopRanking(ctx, table, period, &result); err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "ranking job finished",
		"module", "application.batch",
		"layer", "application",
		"operation", "run_ranking_job",
		"outcome", "success",
		"ranking_type", rankingType,
		"target_date", domain.FormatDate(targetDate),
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"ranked", result.Ranked,
		"pruned", result.Pruned,
	)
	return result, nil
}

func (s *Service) upsertPeriodMetrics(ctx context.Context, table ports.MaterializedRankRepository, targetDate time.Time, period domain.RankingPeriod, result *BatchResult) error {
	afterID := int64(0)
	for {
		rows, err := s.metrics.FindByDate(ctx, targetDate, afterID, s.cfg.BatchChunkSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			afterID = row.ID
			score := domain.Score(row.LikeCount, row.ViewCount, row.SalesCount)
			err := table.Upsert(ctx, ports.RankRow{
				ProductID:   row.ProductID,
				Score:       score,
				PeriodStart: period.Start,
				PeriodEnd:   period.End,
				LikeCount:   row.LikeCount,
				ViewCount:   row.ViewCount,
				SalesCount:  row.SalesCount,
			})
			if err != nil {
				result.Skipped++
				s.logger.WarnContext(ctx, "rank upsert skipped",
					"module", "application.batch",
					"layer", "application",
					"operation", "upsert_period_metrics",
					"outcome", "skipped",
					"product_id", row.ProductID,
					"error", err,
				)
				continue
			}
			result.Upserted++
		}
		if len(rows) < s.cfg.BatchChunkSize {
			return nil
		}
	}
}

func (s *Service) recomputeTopRanking(ctx context.Context, table ports.MaterializedRankRepository, period domain.RankingPeriod, result *BatchResult) error {
	rows, err := table.FindByPeriod(ctx, period)
	if err != nil {
		return err
	}
	// Equal scores order by product id so reruns produce identical rankings.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	for i, row := range rows {
		if i < domain.TopRankingSize {
			if err := table.UpdateRanking(ctx, row.ProductID, period, i+1); err != nil {
				return err
			}
			result.Ranked++
			continue
		}
		if err := table.DeleteByProductAndPeriod(ctx, row.ProductID, period); err != nil {
			return err
		}
		result.Pruned++
	}
	return nil
}
