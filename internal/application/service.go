package application

import (
	"log/slog"
	"time"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

type Config struct {
	ServiceName string
	// MetricsRetryMax bounds retries of a metrics increment that lost a
	// row-creation race.
	MetricsRetryMax int
	// MetricsRetryInterval is the initial backoff between such retries.
	MetricsRetryInterval time.Duration
	// BatchChunkSize is the page size for reading daily metrics during the
	// materialized rank job.
	BatchChunkSize int
	// CarryOverMarkerTTL is how long a completed carry-over run blocks reruns
	// for the same day pair.
	CarryOverMarkerTTL time.Duration
}

type Service struct {
	cfg         Config
	logger      *slog.Logger
	uow         ports.UnitOfWork
	ledger      ports.EventLedgerRepository
	metrics     ports.ProductMetricsRepository
	rankWeekly  ports.MaterializedRankRepository
	rankMonthly ports.MaterializedRankRepository
	ranking     ports.RankingStore
	marker      ports.CarryOverMarker
	cache       ports.ProductCache
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Logger      *slog.Logger
	UnitOfWork  ports.UnitOfWork
	Ledger      ports.EventLedgerRepository
	Metrics     ports.ProductMetricsRepository
	RankWeekly  ports.MaterializedRankRepository
	RankMonthly ports.MaterializedRankRepository
	Ranking     ports.RankingStore
	Marker      ports.CarryOverMarker
	Cache       ports.ProductCache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ranking-service"
	}
	if cfg.MetricsRetryMax <= 0 {
		cfg.MetricsRetryMax = 3
	}
	if cfg.MetricsRetryInterval <= 0 {
		cfg.MetricsRetryInterval = 50 * time.Millisecond
	}
	if cfg.BatchChunkSize <= 0 {
		cfg.BatchChunkSize = 500
	}
	if cfg.CarryOverMarkerTTL <= 0 {
		cfg.CarryOverMarkerTTL = 48 * time.Hour
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:         cfg,
		logger:      logger,
		uow:         deps.UnitOfWork,
		ledger:      deps.Ledger,
		metrics:     deps.Metrics,
		rankWeekly:  deps.RankWeekly,
		rankMonthly: deps.RankMonthly,
		ranking:     deps.Ranking,
		marker:      deps.Marker,
		cache:       deps.Cache,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// rankTable picks the materialized rank repository for a ranking type.
func (s *Service) rankTable(rankingType domain.RankingType) ports.MaterializedRankRepository {
	if rankingType == domain.RankingMonthly {
		return s.rankMonthly
	}
	return s.rankWeekly
}
