package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// ErrOrderNotFound covers both unknown orders and orders of another user
var ErrOrderNotFound = errors.New("order not found")

// OrderService serves user-scoped order lookups
type OrderService struct {
	orders OrderReader
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderReader) *OrderService {
	return &OrderService{
		orders: orders,
		logger: util.GetLogger().Named("orders"),
	}
}

// GetOrderForUser retrieves an order owned by userID
func (s *OrderService) GetOrderForUser(ctx context.Context, userID string, orderID int64) (*models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderForUser")
	defer span.End()

	order, err := s.orders.GetOrderForUser(ctx, orderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}
	return order, nil
}

// ListOrdersForUser retrieves all orders of userID, newest first
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	orders, err := s.orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
