package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiverSecret = "whsec_receiver"

type countingApplier struct {
	calls int
	err   error
}

func (a *countingApplier) Apply(context.Context, payments.Event) (Outcome, error) {
	a.calls++
	return OutcomeApplied, a.err
}

func completedBody(orderID string) []byte {
	return []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_123","metadata":{"orderId":"` + orderID + `"}}}}`)
}

func newTestReceiver(cfg ReceiverConfig, applier EventApplier, locker Locker, now time.Time) *WebhookReceiver {
	r := NewWebhookReceiver(cfg, applier, locker)
	r.now = func() time.Time { return now }
	return r
}

func TestReceiveRejectsWithoutSecret(t *testing.T) {
	applier := &countingApplier{}
	r := newTestReceiver(ReceiverConfig{}, applier, nil, time.Now())

	_, err := r.Receive(context.Background(), completedBody("42"), "t=1,v1=00")
	assert.ErrorIs(t, err, ErrWebhookSecretNotConfigured)
	assert.Zero(t, applier.calls)
}

func TestReceiveRejectsMissingSignature(t *testing.T) {
	applier := &countingApplier{}
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret}, applier, nil, time.Now())

	_, err := r.Receive(context.Background(), completedBody("42"), "")
	assert.ErrorIs(t, err, payments.ErrMissingSignature)
	assert.Zero(t, applier.calls)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{}
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret, Tolerance: payments.DefaultTolerance}, applier, nil, now)

	header := payments.SignPayload(completedBody("42"), "whsec_attacker", now)
	_, err := r.Receive(context.Background(), completedBody("42"), header)
	assert.ErrorIs(t, err, payments.ErrSignatureMismatch)
	assert.Zero(t, applier.calls)
}

func TestReceiveRejectsMalformedBody(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{}
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret}, applier, nil, now)

	body := []byte(`not json`)
	_, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	assert.ErrorIs(t, err, payments.ErrMalformedEvent)
	assert.Zero(t, applier.calls)
}

func TestReceiveAppliesVerifiedEvent(t *testing.T) {
	now := time.Now()
	st := newMemStore(pendingOrder(42, "u1"))
	locker := newMemLocker()
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret, Tolerance: payments.DefaultTolerance},
		NewReconciler(st, nil), locker, now)

	body := completedBody("42")
	ack, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, OutcomeApplied, ack.Outcome)
	assert.Equal(t, models.OrderStatusPaid, st.status(42))
	assert.Equal(t, 1, locker.released)
	assert.Empty(t, locker.held)
}

func TestReceiveAcknowledgesDownstreamFailure(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{err: errors.New("db unavailable")}
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret}, applier, nil, now)

	body := completedBody("42")
	ack, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, OutcomeFailed, ack.Outcome)
}

func TestReceiveStrictDeliverySurfacesFailure(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{err: errors.New("db unavailable")}
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret, StrictDelivery: true}, applier, nil, now)

	body := completedBody("42")
	_, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	assert.ErrorIs(t, err, ErrReconcileFailed)
	assert.ErrorIs(t, err, applier.err)
}

func TestReceiveDeliveryInProgressIsAcknowledged(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{}
	locker := newMemLocker()
	locker.held["webhook:evt_1"] = true
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret}, applier, locker, now)

	body := completedBody("42")
	ack, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, OutcomeDuplicate, ack.Outcome)
	assert.Zero(t, applier.calls)
}

func TestReceiveProceedsWhenLockerFails(t *testing.T) {
	now := time.Now()
	applier := &countingApplier{}
	locker := newMemLocker()
	locker.err = errors.New("redis down")
	r := newTestReceiver(ReceiverConfig{Secret: receiverSecret}, applier, locker, now)

	body := completedBody("42")
	ack, err := r.Receive(context.Background(), body, payments.SignPayload(body, receiverSecret, now))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, 1, applier.calls)
}

func TestReadyRequiresSecret(t *testing.T) {
	assert.ErrorIs(t, newTestReceiver(ReceiverConfig{Secret: "  "}, &countingApplier{}, nil, time.Now()).Ready(),
		ErrWebhookSecretNotConfigured)
	assert.NoError(t, newTestReceiver(ReceiverConfig{Secret: "whsec"}, &countingApplier{}, nil, time.Now()).Ready())
}
