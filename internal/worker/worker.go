package worker

import (
	"context"
	"errors"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SignatureHeader is the Kafka header carrying the provider signature
const SignatureHeader = "stripe-signature"

// Receiver verifies and reconciles one raw provider delivery
type Receiver interface {
	Receive(ctx context.Context, body []byte, signatureHeader string) (service.Ack, error)
}

// WebhookRelayWorker consumes relayed provider deliveries and runs them
// through the same receiver as the HTTP endpoint
type WebhookRelayWorker struct {
	consumer *broker.Consumer
	receiver Receiver
	logger   *zap.Logger
}

// NewWebhookRelayWorker creates a new relay worker
func NewWebhookRelayWorker(consumer *broker.Consumer, receiver Receiver) *WebhookRelayWorker {
	return &WebhookRelayWorker{
		consumer: consumer,
		receiver: receiver,
		logger:   util.GetLogger().Named("relay"),
	}
}

// Start starts the worker
func (w *WebhookRelayWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting webhook relay worker")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *WebhookRelayWorker) Stop() error {
	w.logger.Info("Stopping webhook relay worker")
	return w.consumer.Close()
}

// HandleMessage processes one relayed delivery. A missing signing secret and
// a reconcile failure in strict delivery mode are returned, so the consumer
// retries the message instead of committing it. Deliveries that fail
// verification are dropped.
func (w *WebhookRelayWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	logger := w.logger.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))

	ack, err := w.receiver.Receive(ctx, msg.Value, broker.HeaderValue(msg, SignatureHeader))
	if retryable(err) {
		return err
	}
	if err != nil {
		logger.Warn("Dropping relayed webhook", zap.Error(err))
		return nil
	}

	logger.Debug("Relayed webhook processed", zap.String("outcome", string(ack.Outcome)))
	return nil
}

func retryable(err error) bool {
	return errors.Is(err, service.ErrReconcileFailed) ||
		errors.Is(err, service.ErrWebhookSecretNotConfigured)
}
