package application

import (
	"context"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
)

// CarryOver seeds toDate's live ranking with a decayed fraction of fromDate's
// scores. A marker keyed by the day pair makes the seeding run at most once
// within the retention window; a rerun is a logged no-op, never a
// double-seed. Seeding is additive on top of any scores toDate has already
// accumulated.
func (s *Service) CarryOver(ctx context.Context, fromDate, toDate time.Time) (int, error) {
	acquired, err := s.marker.Acquire(ctx, fromDate, toDate, s.cfg.CarryOverMarkerTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		s.logger.InfoContext(ctx, "carry-over already applied",
			"module", "application.carryover",
			"layer", "application",
			"operation", "carry_over",
			"outcome", "skipped",
			"from_date", domain.FormatDate(fromDate),
			"to_date", domain.FormatDate(toDate),
		)
		return 0, nil
	}

	seeded, err := s.ranking.CarryOverScore(ctx, fromDate, toDate)
	if err != nil {
		// The day pair is still unseeded; give the marker back so the next
		// tick can retry instead of seeing a marker with no seeding behind it.
		if relErr := s.marker.Release(ctx, fromDate, toDate); relErr != nil {
			s.logger.ErrorContext(ctx, "carry-over marker release failed",
				"module", "application.carryover",
				"layer", "application",
				"operation", "carry_over",
				"outcome", "failure",
				"from_date", domain.FormatDate(fromDate),
				"to_date", domain.FormatDate(toDate),
				"error", relErr,
			)
		}
		return 0, err
	}

	s.logger.InfoContext(ctx, "carry-over applied",
		"module", "application.carryover",
		"layer", "application",
		"operation", "carry_over",
		"outcome", "success",
		"from_date", domain.FormatDate(fromDate),
		"to_date", domain.FormatDate(toDate),
		"seeded", seeded,
	)
	return seeded, nil
}

// CarryOverToday seeds today from yesterday, the timer-driven default.
func (s *Service) CarryOverToday(ctx context.Context) (int, error) {
	today := s.nowFn()
	return s.CarryOver(ctx, today.AddDate(0, 0, -1), today)
}
