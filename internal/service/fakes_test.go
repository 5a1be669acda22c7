package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/store"
)

type memStore struct {
	mu        sync.Mutex
	orders    map[int64]*models.Order
	processed map[string]string
	stores    map[string]models.Store

	writes      int
	storeReads  int
	failUpdate  error
	failLookup  error
	failMarking error
}

func newMemStore(orders ...*models.Order) *memStore {
	s := &memStore{
		orders:    map[int64]*models.Order{},
		processed: map[string]string{},
		stores:    map[string]models.Store{},
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memStore) status(id int64) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

func (s *memStore) GetOrderStatus(_ context.Context, orderID int64) (models.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return "", fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	return o.Status, nil
}

func (s *memStore) TransitionOrderStatus(_ context.Context, orderID int64, to models.OrderStatus, from []models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failUpdate != nil {
		return false, s.failUpdate
	}
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if o.Status == st {
			o.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[eventID]
	return ok, nil
}

func (s *memStore) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarking != nil {
		return s.failMarking
	}
	s.processed[eventID] = eventType
	return nil
}

func (s *memStore) FindOrderIDByCandidates(_ context.Context, userID string, candidates []store.FieldMatch) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookup != nil {
		return 0, false, s.failLookup
	}
	var best int64
	for id, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		for _, c := range candidates {
			var col string
			switch c.Column {
			case "stripe_checkout_session_id":
				col = o.StripeCheckoutSessionID.String
			case "stripe_payment_id":
				col = o.StripePaymentID.String
			default:
				return 0, false, errors.New("unknown column " + c.Column)
			}
			if col != "" && col == c.Value && id > best {
				best = id
			}
		}
	}
	return best, best != 0, nil
}

func (s *memStore) GetOrderForUser(_ context.Context, orderID int64, userID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetOrdersByUserID(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) GetStoreBySlug(_ context.Context, slug string) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeReads++
	st, ok := s.stores[slug]
	if !ok {
		return nil, fmt.Errorf("store %q: %w", slug, store.ErrNotFound)
	}
	return &st, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.OrderStatusChangedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type memLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (*redisclient.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[key] {
		return nil, nil
	}
	l.held[key] = true
	return &redisclient.Lock{Key: key}, nil
}

func (l *memLocker) ReleaseLock(_ context.Context, lock *redisclient.Lock) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, lock.Key)
	l.released++
	return nil
}

func pendingOrder(id int64, userID string) *models.Order {
	return &models.Order{ID: id, UserID: userID, Status: models.OrderStatusPending}
}
