package application

import (
	"context"
	"fmt"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = domain.TopRankingSize
)

// GetDailyRanking reads a page of the live per-day ranking. Rank is 1-based
// and continues across pages. A date with no scores yields an empty page.
func (s *Service) GetDailyRanking(ctx context.Context, date time.Time, page, size int) ([]domain.RankedProduct, error) {
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}
	start := int64((page - 1) * size)
	end := start + int64(size) - 1

	entries, err := s.ranking.Range(ctx, date, start, end)
	if err != nil {
		return nil, err
	}
	ranked := make([]domain.RankedProduct, 0, len(entries))
	for i, entry := range entries {
		ranked = append(ranked, domain.RankedProduct{
			ProductID: entry.ProductID,
			Rank:      int(start) + 1 + i,
			Score:     entry.Score,
		})
	}
	return ranked, nil
}

// GetProductRank returns a product's 1-based position in the live daily
// ranking, or ok=false when the product has no score for that date.
func (s *Service) GetProductRank(ctx context.Context, date time.Time, productID int64) (int64, bool, error) {
	if productID <= 0 {
		return 0, false, fmt.Errorf("%w: productId must be positive", domain.ErrInvalidInput)
	}
	return s.ranking.Rank(ctx, date, productID)
}

// GetPeriodRanking reads a page of the materialized weekly or monthly Top-100
// for the period containing date. Only rows with an assigned ranking are
// served; an unaggregated period yields an empty page.
func (s *Service) GetPeriodRanking(ctx context.Context, rankingType domain.RankingType, date time.Time, page, size int) ([]domain.RankedProduct, error) {
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}
	period := domain.PeriodOf(rankingType, date)
	offset := (page - 1) * size

	rows, err := s.rankTable(rankingType).FindRankedByPeriod(ctx, period, offset, size)
	if err != nil {
		return nil, err
	}
	ranked := make([]domain.RankedProduct, 0, len(rows))
	for _, row := range rows {
		rank := 0
		if row.Ranking != nil {
			rank = *row.Ranking
		}
		ranked = append(ranked, domain.RankedProduct{
			ProductID: row.ProductID,
			Rank:      rank,
			Score:     row.Score,
		})
	}
	return ranked, nil
}

func (s *Service) GetWeeklyRanking(ctx context.Context, date time.Time, page, size int) ([]domain.RankedProduct, error) {
	return s.GetPeriodRanking(ctx, domain.RankingWeekly, date, page, size)
}

func (s *Service) GetMonthlyRanking(ctx context.Context, date time.Time, page, size int) ([]domain.RankedProduct, error) {
	return s.GetPeriodRanking(ctx, domain.RankingMonthly, date, page, size)
}

func normalizePage(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = defaultPageSize
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidInput)
	}
	if size < 1 || size > maxPageSize {
		return 0, 0, fmt.Errorf("%w: size must be between 1 and %d", domain.ErrInvalidInput, maxPageSize)
	}
	return page, size, nil
}
