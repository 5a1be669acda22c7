package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-orders/internal/models"

	"github.com/lib/pq"
)

const orderColumns = `id, store_id, user_id, status, total_amount,
	stripe_checkout_session_id, stripe_payment_id, created_at, updated_at`

// FieldMatch is one candidate column/value pair for an order lookup
type FieldMatch struct {
	Column string
	Value  string
}

// lookupColumns lists the columns FindOrderIDByCandidates may compare against
var lookupColumns = map[string]bool{
	"stripe_checkout_session_id": true,
	"stripe_payment_id":          true,
}

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (store_id, user_id, status, total_amount, stripe_checkout_session_id, stripe_payment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		order.StoreID, order.UserID, order.Status, order.TotalAmount,
		order.StripeCheckoutSessionID, order.StripePaymentID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// GetOrderForUser retrieves an order owned by userID
func (s *Store) GetOrderForUser(ctx context.Context, orderID int64, userID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2", orderID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderStatus reads the current status of an order
func (s *Store) GetOrderStatus(ctx context.Context, orderID int64) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := s.db.GetContext(ctx, &status, "SELECT status FROM orders WHERE id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return status, err
}

// TransitionOrderStatus sets the status of orderID to `to` only while the
// current status is one of `from`. It reports whether a row changed.
func (s *Store) TransitionOrderStatus(ctx context.Context, orderID int64, to models.OrderStatus, from []models.OrderStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3)",
		to, orderID, pq.Array(allowed))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindOrderIDByCandidates returns the newest order of userID whose value in
// any candidate column equals the candidate value.
func (s *Store) FindOrderIDByCandidates(ctx context.Context, userID string, candidates []FieldMatch) (int64, bool, error) {
	query, args, err := buildCandidateQuery(userID, candidates)
	if err != nil {
		return 0, false, err
	}

	var id int64
	err = s.db.GetContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func buildCandidateQuery(userID string, candidates []FieldMatch) (string, []interface{}, error) {
	if userID == "" {
		return "", nil, errors.New("store: user id is required for order lookup")
	}
	if len(candidates) == 0 {
		return "", nil, errors.New("store: at least one lookup candidate is required")
	}

	args := []interface{}{userID}
	clauses := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !lookupColumns[c.Column] {
			return "", nil, fmt.Errorf("store: column %q is not a lookup column", c.Column)
		}
		args = append(args, c.Value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, len(args)))
	}

	query := "SELECT id FROM orders WHERE user_id = $1 AND (" +
		strings.Join(clauses, " OR ") + ") ORDER BY id DESC LIMIT 1"
	return query, args, nil
}
