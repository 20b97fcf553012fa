package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loopcart/ranking-service/internal/application"
)

// CarryOverWorker periodically seeds today's live ranking from yesterday's.
// The interval can be short: the carry-over marker makes every run after the
// first for a given day pair a no-op, so firing often just tightens how soon
// after midnight the seeding lands.
type CarryOverWorker struct {
	logger   *slog.Logger
	handler  *application.Service
	interval time.Duration
}

func NewCarryOverWorker(logger *slog.Logger, handler *application.Service, interval time.Duration) *CarryOverWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CarryOverWorker{logger: logger, handler: handler, interval: interval}
}

func (w *CarryOverWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.handler.CarryOverToday(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "carry-over iteration failed",
				"module", "scheduler.carryover_worker",
				"layer", "adapter",
				"operation", "carry_over_today",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
