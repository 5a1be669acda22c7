package service

import (
	"context"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/store"
)

// PaymentStore is the persistence used to reconcile payment events
type PaymentStore interface {
	GetOrderStatus(ctx context.Context, orderID int64) (models.OrderStatus, error)
	TransitionOrderStatus(ctx context.Context, orderID int64, to models.OrderStatus, from []models.OrderStatus) (bool, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// SessionStore finds orders by checkout session identifiers
type SessionStore interface {
	FindOrderIDByCandidates(ctx context.Context, userID string, candidates []store.FieldMatch) (int64, bool, error)
}

// OrderReader reads user-scoped orders
type OrderReader interface {
	GetOrderForUser(ctx context.Context, orderID int64, userID string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
}

// StorefrontReader reads tenant storefronts
type StorefrontReader interface {
	GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error)
}

// StatusPublisher announces applied order status transitions
type StatusPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// Locker serialises work on a key across instances
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
}
