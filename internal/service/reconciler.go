package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/payments"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Outcome describes what reconciling one payment event did
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeConflict      Outcome = "conflict"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeNoOrder       Outcome = "no_order"
	OutcomeOrderNotFound Outcome = "order_not_found"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeFailed        Outcome = "failed"
)

// transitionable lists the statuses a payment event may move an order out of.
// PAID and CANCELLED are terminal.
var transitionable = []models.OrderStatus{models.OrderStatusPending}

// Reconciler applies verified payment events to order status
type Reconciler struct {
	store     PaymentStore
	publisher StatusPublisher
	logger    *zap.Logger
}

// NewReconciler creates a reconciler. publisher may be nil.
func NewReconciler(store PaymentStore, publisher StatusPublisher) *Reconciler {
	return &Reconciler{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger().Named("reconciler"),
	}
}

// TargetStatus maps an event to the order status it requests
func TargetStatus(ev payments.Event) (models.OrderStatus, bool) {
	switch ev.(type) {
	case payments.CheckoutCompleted:
		return models.OrderStatusPaid, true
	case payments.AsyncPaymentFailed, payments.SessionExpired, payments.ChargeFailed:
		return models.OrderStatusCancelled, true
	case payments.Unhandled:
		return "", false
	default:
		return "", false
	}
}

// Apply moves the referenced order to the status the event requests. Events
// without an order reference and event types with no mapping are no-ops. A
// terminal order is never moved to a different terminal status.
func (r *Reconciler) Apply(ctx context.Context, ev payments.Event) (Outcome, error) {
	h := ev.Header()

	ctx, span := util.StartSpan(ctx, "Reconciler.Apply",
		attribute.String("payment.event_id", h.ID),
		attribute.String("payment.event_type", h.Type))
	defer span.End()

	start := time.Now()
	defer func() {
		util.WebhookProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	logger := r.logger.With(zap.String("event_id", h.ID), zap.String("event_type", h.Type))

	target, ok := TargetStatus(ev)
	if !ok {
		logger.Debug("Ignoring unhandled event type")
		return OutcomeIgnored, nil
	}

	orderID, ok := h.OrderID()
	if !ok {
		logger.Info("Payment event carries no order reference",
			zap.String("object_id", h.ObjectID))
		return OutcomeNoOrder, nil
	}
	logger = logger.With(zap.Int64("order_id", orderID))

	if h.ID != "" {
		processed, err := r.store.IsEventProcessed(ctx, h.ID)
		if err != nil {
			return "", fmt.Errorf("failed to check event processed: %w", err)
		}
		if processed {
			logger.Info("Event already processed")
			return OutcomeDuplicate, nil
		}
	}

	changed, err := r.store.TransitionOrderStatus(ctx, orderID, target, transitionable)
	if err != nil {
		return "", fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}

	outcome := OutcomeApplied
	if changed {
		r.recordApplied(ctx, logger, orderID, target, h)
	} else {
		current, err := r.store.GetOrderStatus(ctx, orderID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// the order may not be committed yet; leave the event unmarked so
			// a redelivery can still apply it
			logger.Warn("Payment event references unknown order")
			return OutcomeOrderNotFound, nil
		case err != nil:
			return "", fmt.Errorf("failed to read order %d status: %w", orderID, err)
		case current == target:
			outcome = OutcomeUnchanged
			logger.Info("Order already in target status", zap.String("status", string(current)))
		default:
			outcome = OutcomeConflict
			util.OrderTransitionConflictsTotal.WithLabelValues(string(current), string(target)).Inc()
			logger.Warn("Ignoring payment event for order in conflicting terminal status",
				zap.String("current", string(current)),
				zap.String("target", string(target)))
		}
	}

	if h.ID != "" {
		if err := r.store.MarkEventProcessed(ctx, h.ID, h.Type); err != nil {
			logger.Error("Failed to mark event processed", zap.Error(err))
		}
	}

	return outcome, nil
}

func (r *Reconciler) recordApplied(ctx context.Context, logger *zap.Logger, orderID int64, status models.OrderStatus, h payments.Envelope) {
	if status == models.OrderStatusPaid {
		util.OrdersPaidTotal.Inc()
	} else {
		util.OrdersCancelledTotal.Inc()
	}
	logger.Info("Order status updated", zap.String("status", string(status)))

	if r.publisher == nil {
		return
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeForStatus(status),
			Timestamp: time.Now(),
		},
		OrderID:       orderID,
		Status:        status,
		SourceEventID: h.ID,
		SourceType:    h.Type,
	}
	if err := r.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		logger.Error("Failed to publish order status event", zap.Error(err))
	}
}
