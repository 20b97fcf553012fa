package application

import (
	"context"
	"fmt"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

// RecordProductLiked stages a product-liked event for publication.
func (s *Service) RecordProductLiked(ctx context.Context, productID, userID int64) (string, error) {
	if err := validateProductActor(productID, userID); err != nil {
		return "", err
	}
	return s.stage(ctx, domain.NewProductLiked(productID, userID, s.nowFn()))
}

func (s *Service) RecordProductUnliked(ctx context.Context, productID, userID int64) (string, error) {
	if err := validateProductActor(productID, userID); err != nil {
		return "", err
	}
	return s.stage(ctx, domain.NewProductUnliked(productID, userID, s.nowFn()))
}

func (s *Service) RecordProductViewed(ctx context.Context, productID, userID int64) (string, error) {
	if err := validateProductActor(productID, userID); err != nil {
		return "", err
	}
	return s.stage(ctx, domain.NewProductViewed(productID, userID, s.nowFn()))
}

func (s *Service) RecordStockDepleted(ctx context.Context, productID int64, remainingStock int) (string, error) {
	if productID <= 0 {
		return "", fmt.Errorf("%w: productId must be positive", domain.ErrInvalidInput)
	}
	if remainingStock < 0 {
		return "", fmt.Errorf("%w: remainingStock must not be negative", domain.ErrInvalidInput)
	}
	return s.stage(ctx, domain.NewProductStockDepleted(productID, remainingStock, s.nowFn()))
}

func (s *Service) RecordOrderCreated(ctx context.Context, orderKey string, userID, orderID, totalPrice, discountPrice int64, items []domain.OrderItem) (string, error) {
	if err := validateOrder(orderKey, userID, orderID, items); err != nil {
		return "", err
	}
	return s.stage(ctx, domain.NewOrderCreated(orderKey, userID, orderID, totalPrice, discountPrice, items, s.nowFn()))
}

func (s *Service) RecordOrderPaid(ctx context.Context, orderKey string, userID, orderID, totalPrice int64, items []domain.OrderItem) (string, error) {
	if err := validateOrder(orderKey, userID, orderID, items); err != nil {
		return "", err
	}
	return s.stage(ctx, domain.NewOrderPaid(orderKey, userID, orderID, totalPrice, items, s.nowFn()))
}

// stage persists the event as a PENDING outbox record. The record and any
// caller-side domain write share the unit of work, so nothing is published for
// a rolled-back change and nothing committed goes unpublished.
func (s *Service) stage(ctx context.Context, event domain.Event) (string, error) {
	payload, err := domain.EncodeEvent(event)
	if err != nil {
		return "", err
	}
	err = s.uow.Do(ctx, func(tx ports.TxRepositories) error {
		return tx.Outbox.Stage(ctx, ports.OutboxRecord{
			Topic:        event.Type().Topic(),
			PartitionKey: event.PartitionKey(),
			Payload:      payload,
			CreatedAt:    event.OccurredAt(),
		})
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "event staged",
		"module", "application.recorder",
		"layer", "application",
		"operation", "stage",
		"outcome", "success",
		"event_id", event.ID(),
		"event_type", event.Type(),
	)
	return event.ID(), nil
}

func validateProductActor(productID, userID int64) error {
	if productID <= 0 {
		return fmt.Errorf("%w: productId must be positive", domain.ErrInvalidInput)
	}
	if userID <= 0 {
		return fmt.Errorf("%w: userId must be positive", domain.ErrInvalidInput)
	}
	return nil
}

func validateOrder(orderKey string, userID, orderID int64, items []domain.OrderItem) error {
	if orderKey == "" {
		return fmt.Errorf("%w: orderKey is required", domain.ErrInvalidInput)
	}
	if userID <= 0 {
		return fmt.Errorf("%w: userId must be positive", domain.ErrInvalidInput)
	}
	if orderID <= 0 {
		return fmt.Errorf("%w: orderId must be positive", domain.ErrInvalidInput)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: orderItems must not be empty", domain.ErrInvalidInput)
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: orderItems.productId must be positive", domain.ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: orderItems.quantity must be positive", domain.ErrInvalidInput)
		}
	}
	return nil
}
