package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/payments"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrWebhookSecretNotConfigured means the endpoint cannot verify anything
	ErrWebhookSecretNotConfigured = errors.New("webhook signing secret is not configured")
	// ErrReconcileFailed is returned in strict delivery mode when a verified
	// event could not be applied
	ErrReconcileFailed = errors.New("webhook event could not be applied")
)

// EventApplier applies a verified payment event
type EventApplier interface {
	Apply(ctx context.Context, ev payments.Event) (Outcome, error)
}

// ReceiverConfig configures a WebhookReceiver
type ReceiverConfig struct {
	Secret    string
	Tolerance time.Duration
	// StrictDelivery returns reconcile failures to the caller instead of
	// acknowledging them, so the provider redelivers.
	StrictDelivery bool
	LockTTL        time.Duration
}

// Ack is the provider-facing acknowledgement
type Ack struct {
	Received bool    `json:"received"`
	Outcome  Outcome `json:"-"`
}

// WebhookReceiver verifies raw provider deliveries and hands them to the
// reconciler. It never writes order state itself.
type WebhookReceiver struct {
	cfg     ReceiverConfig
	applier EventApplier
	locker  Locker
	logger  *zap.Logger
	now     func() time.Time
}

// NewWebhookReceiver creates a receiver. locker may be nil.
func NewWebhookReceiver(cfg ReceiverConfig, applier EventApplier, locker Locker) *WebhookReceiver {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &WebhookReceiver{
		cfg:     cfg,
		applier: applier,
		locker:  locker,
		logger:  util.GetLogger().Named("webhook"),
		now:     time.Now,
	}
}

// Ready reports ErrWebhookSecretNotConfigured when no delivery could be
// verified. Callers may check it before reading a request body.
func (r *WebhookReceiver) Ready() error {
	if strings.TrimSpace(r.cfg.Secret) == "" {
		util.WebhooksReceivedTotal.WithLabelValues("config_error").Inc()
		r.logger.Error("Rejecting webhook: signing secret is not configured")
		return ErrWebhookSecretNotConfigured
	}
	return nil
}

// Receive verifies body against signatureHeader and reconciles the event.
// body must be the unmodified request body.
func (r *WebhookReceiver) Receive(ctx context.Context, body []byte, signatureHeader string) (Ack, error) {
	ctx, span := util.StartSpan(ctx, "WebhookReceiver.Receive")
	defer span.End()

	if err := r.Ready(); err != nil {
		return Ack{}, err
	}

	if err := payments.VerifySignature(body, signatureHeader, r.cfg.Secret, r.cfg.Tolerance, r.now()); err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("rejected").Inc()
		r.logger.Warn("Rejecting webhook", zap.Error(err))
		return Ack{}, err
	}

	ev, err := payments.ParseEvent(body)
	if err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("malformed").Inc()
		r.logger.Warn("Rejecting webhook", zap.Error(err))
		return Ack{}, err
	}
	h := ev.Header()
	logger := r.logger.With(zap.String("event_id", h.ID), zap.String("event_type", h.Type))

	if r.locker != nil && h.ID != "" {
		lock, err := r.locker.AcquireLock(ctx, "webhook:"+h.ID, r.cfg.LockTTL)
		switch {
		case err != nil:
			logger.Warn("Webhook lock unavailable, processing without it", zap.Error(err))
		case lock == nil:
			logger.Info("Delivery already in progress elsewhere")
			util.WebhooksReceivedTotal.WithLabelValues("accepted").Inc()
			util.WebhookEventsTotal.WithLabelValues(h.Type, string(OutcomeDuplicate)).Inc()
			return Ack{Received: true, Outcome: OutcomeDuplicate}, nil
		default:
			defer func() {
				if err := r.locker.ReleaseLock(context.Background(), lock); err != nil {
					logger.Warn("Failed to release webhook lock", zap.Error(err))
				}
			}()
		}
	}

	outcome, err := r.applier.Apply(ctx, ev)
	if err != nil {
		logger.Error("Failed to reconcile payment event", zap.Error(err))
		util.WebhookEventsTotal.WithLabelValues(h.Type, string(OutcomeFailed)).Inc()
		if r.cfg.StrictDelivery {
			util.WebhooksReceivedTotal.WithLabelValues("failed").Inc()
			return Ack{}, fmt.Errorf("%w: %w", ErrReconcileFailed, err)
		}
		util.WebhooksReceivedTotal.WithLabelValues("accepted").Inc()
		return Ack{Received: true, Outcome: OutcomeFailed}, nil
	}

	util.WebhooksReceivedTotal.WithLabelValues("accepted").Inc()
	util.WebhookEventsTotal.WithLabelValues(h.Type, string(outcome)).Inc()
	return Ack{Received: true, Outcome: outcome}, nil
}
