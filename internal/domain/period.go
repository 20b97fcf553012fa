package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "20060102"

// FormatDate renders a date as yyyyMMdd, the form used for ranking keys and
// query parameters.
func FormatDate(date time.Time) string {
	return date.Format(dateLayout)
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be yyyyMMdd", ErrInvalidInput)
	}
	return t, nil
}

// RankingType selects which materialized rank table a batch run targets.
type RankingType string

const (
	RankingWeekly  RankingType = "WEEKLY"
	RankingMonthly RankingType = "MONTHLY"
)

func ParseRankingType(raw string) (RankingType, error) {
	switch RankingType(strings.ToUpper(strings.TrimSpace(raw))) {
	case RankingWeekly:
		return RankingWeekly, nil
	case RankingMonthly:
		return RankingMonthly, nil
	default:
		return "", fmt.Errorf("%w: unknown ranking type %q", ErrInvalidInput, raw)
	}
}

// RankingPeriod is a closed date range derived deterministically from a
// reference date. It has no persisted identity of its own.
type RankingPeriod struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the ISO week (Monday through Sunday) containing date.
func WeekOf(date time.Time) RankingPeriod {
	date = truncateToDay(date)
	offset := (int(date.Weekday()) + 6) % 7
	start := date.AddDate(0, 0, -offset)
	return RankingPeriod{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthOf returns the calendar month containing date.
func MonthOf(date time.Time) RankingPeriod {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return RankingPeriod{Start: start, End: start.AddDate(0, 1, -1)}
}

// PeriodOf derives the period for a ranking type from a target date.
func PeriodOf(rankingType RankingType, date time.Time) RankingPeriod {
	if rankingType == RankingMonthly {
		return MonthOf(date)
	}
	return WeekOf(date)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
