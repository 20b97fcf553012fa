package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

// Outcome tells the consumer what happened to a delivered event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
)

// HandleEvent applies one consumed event exactly once. The dedup ledger is
// checked first; on a fresh event the side effects and the ledger entry commit
// in one transaction, so a crash between them cannot split the two.
func (s *Service) HandleEvent(ctx context.Context, topic string, payload []byte) (Outcome, error) {
	event, err := domain.DecodeEvent(topic, payload)
	if err != nil {
		return "", err
	}

	handled, err := s.ledger.IsHandled(ctx, event.ID())
	if err != nil {
		return "", err
	}
	if handled {
		s.logger.DebugContext(ctx, "duplicate event skipped",
			"module", "application.handler",
			"layer", "application",
			"operation", "handle_event",
			"outcome", "duplicate",
			"event_id", event.ID(),
			"event_type", event.Type(),
		)
		return OutcomeDuplicate, nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

func (s *Service) applyEvent(ctx context.Context, event domain.Event) error {
	now := s.nowFn()

	switch evt := event.(type) {
	case *domain.ProductLiked:
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			if err := s.withMetricsRetry(ctx, func() error {
				return tx.Metrics.IncrementLikeCount(ctx, evt.ProductID, now)
			}); err != nil {
				return err
			}
			if err := s.ranking.IncrementScore(ctx, now, evt.ProductID, domain.WeightLike); err != nil {
				return err
			}
			return s.markHandled(ctx, tx, event, now)
		})

	case *domain.ProductUnliked:
		// An unlike lowers the daily counter but never claws back score.
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			if err := tx.Metrics.DecrementLikeCount(ctx, evt.ProductID, now); err != nil {
				return err
			}
			return s.markHandled(ctx, tx, event, now)
		})

	case *domain.ProductViewed:
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			if err := s.withMetricsRetry(ctx, func() error {
				return tx.Metrics.IncrementViewCount(ctx, evt.ProductID, now)
			}); err != nil {
				return err
			}
			if err := s.ranking.IncrementScore(ctx, now, evt.ProductID, domain.WeightView); err != nil {
				return err
			}
			return s.markHandled(ctx, tx, event, now)
		})

	case *domain.OrderCreated:
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			for _, item := range evt.Items {
				if err := s.ranking.IncrementScore(ctx, now, item.ProductID, domain.WeightOrderCreated); err != nil {
					return err
				}
			}
			return s.markHandled(ctx, tx, event, now)
		})

	case *domain.OrderPaid:
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			for _, item := range evt.Items {
				productID, quantity := item.ProductID, item.Quantity
				if err := s.withMetricsRetry(ctx, func() error {
					return tx.Metrics.IncrementSalesCount(ctx, productID, now, quantity)
				}); err != nil {
					return err
				}
			}
			return s.markHandled(ctx, tx, event, now)
		})

	case *domain.ProductStockDepleted:
		return s.uow.Do(ctx, func(tx ports.TxRepositories) error {
			if err := s.cache.Invalidate(ctx, evt.ProductID); err != nil {
				return err
			}
			return s.markHandled(ctx, tx, event, now)
		})

	default:
		return fmt.Errorf("%w: unhandled event variant %s", domain.ErrInvalidInput, event.Type())
	}
}

func (s *Service) markHandled(ctx context.Context, tx ports.TxRepositories, event domain.Event, at time.Time) error {
	return tx.Ledger.MarkHandled(ctx, event.ID(), event.Type(), event.PartitionKey(), at)
}

// withMetricsRetry reruns an increment that lost the lazy row-creation race.
// The conflict resolves itself once the row exists, so a few short retries
// are enough.
func (s *Service) withMetricsRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.MetricsRetryInterval

	var err error
	for attempt := 0; attempt <= s.cfg.MetricsRetryMax; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		sleep := bo.NextBackOff()
		if sleep == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return err
}
