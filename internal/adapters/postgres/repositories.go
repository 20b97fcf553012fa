package postgres

import (
	"context"

	"github.com/loopcart/ranking-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Outbox      ports.OutboxRepository
	Ledger      ports.EventLedgerRepository
	Metrics     ports.ProductMetricsRepository
	RankWeekly  ports.MaterializedRankRepository
	RankMonthly ports.MaterializedRankRepository
	UnitOfWork  ports.UnitOfWork
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Outbox:      &outboxRepository{db: db},
		Ledger:      &eventLedgerRepository{db: db},
		Metrics:     &productMetricsRepository{db: db},
		RankWeekly:  &materializedRankRepository{db: db, table: "mv_product_rank_weekly"},
		RankMonthly: &materializedRankRepository{db: db, table: "mv_product_rank_monthly"},
		UnitOfWork:  &unitOfWork{db: db},
	}
}

type unitOfWork struct {
	db *gorm.DB
}

func (u *unitOfWork) Do(ctx context.Context, fn func(tx ports.TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.TxRepositories{
			Outbox:  &outboxRepository{db: tx},
			Ledger:  &eventLedgerRepository{db: tx},
			Metrics: &productMetricsRepository{db: tx},
		})
	})
}

var _ ports.UnitOfWork = (*unitOfWork)(nil)
