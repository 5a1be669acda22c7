package models

import (
	"database/sql"
	"time"
)

// OrderStatus is the payment lifecycle state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further payment transition may change the status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// Store represents a tenant storefront
type Store struct {
	ID        int64     `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	Currency  string    `db:"currency" json:"currency"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order represents a customer order.
// StripePaymentID is the pre-migration column for the checkout session id and
// may hold the same value StripeCheckoutSessionID holds on newer rows.
type Order struct {
	ID                      int64          `db:"id" json:"id"`
	StoreID                 int64          `db:"store_id" json:"store_id"`
	UserID                  string         `db:"user_id" json:"user_id"`
	Status                  OrderStatus    `db:"status" json:"status"`
	TotalAmount             int64          `db:"total_amount" json:"total_amount"`
	StripeCheckoutSessionID sql.NullString `db:"stripe_checkout_session_id" json:"-"`
	StripePaymentID         sql.NullString `db:"stripe_payment_id" json:"-"`
	CreatedAt               time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at" json:"updated_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
