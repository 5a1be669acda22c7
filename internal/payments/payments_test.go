package payments

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func eventBody(eventType, orderID string) []byte {
	meta := `{}`
	if orderID != "" {
		meta = `{"orderId":"` + orderID + `"}`
	}
	return []byte(`{"id":"evt_1","type":"` + eventType + `","created":1700000000,"data":{"object":{"id":"cs_123","metadata":` + meta + `}}}`)
}

func TestVerifySignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	body := eventBody(TypeCheckoutCompleted, "42")
	header := SignPayload(body, testSecret, now)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifySignature(body, header, testSecret, DefaultTolerance, now))
	})

	t.Run("missing header", func(t *testing.T) {
		err := VerifySignature(body, "  ", testSecret, DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("missing secret", func(t *testing.T) {
		err := VerifySignature(body, header, "", DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := VerifySignature(body, header, "whsec_other", DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("body modified", func(t *testing.T) {
		tampered := eventBody(TypeCheckoutCompleted, "43")
		err := VerifySignature(tampered, header, testSecret, DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("reformatted body is rejected", func(t *testing.T) {
		reformatted := []byte(strings.ReplaceAll(string(body), ",", ", "))
		err := VerifySignature(reformatted, header, testSecret, DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		err := VerifySignature(body, header, testSecret, DefaultTolerance, now.Add(10*time.Minute))
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("tolerance disabled", func(t *testing.T) {
		assert.NoError(t, VerifySignature(body, header, testSecret, 0, now.Add(time.Hour)))
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, h := range []string{"garbage", "t=abc,v1=00", "t=1700000000", "t=1700000000,v1=zz"} {
			err := VerifySignature(body, h, testSecret, DefaultTolerance, now)
			assert.ErrorIs(t, err, ErrSignatureMismatch, h)
		}
	})

	t.Run("one of several signatures matches", func(t *testing.T) {
		multi := strings.Replace(header, "v1=", "v1=deadbeef,v1=", 1)
		assert.NoError(t, VerifySignature(body, multi, testSecret, DefaultTolerance, now))
	})
}

func TestParseEvent(t *testing.T) {
	cases := []struct {
		eventType string
		check     func(t *testing.T, ev Event)
	}{
		{TypeCheckoutCompleted, func(t *testing.T, ev Event) { assert.IsType(t, CheckoutCompleted{}, ev) }},
		{TypeAsyncPaymentFailed, func(t *testing.T, ev Event) { assert.IsType(t, AsyncPaymentFailed{}, ev) }},
		{TypeSessionExpired, func(t *testing.T, ev Event) { assert.IsType(t, SessionExpired{}, ev) }},
		{TypeChargeFailed, func(t *testing.T, ev Event) { assert.IsType(t, ChargeFailed{}, ev) }},
		{"invoice.paid", func(t *testing.T, ev Event) { assert.IsType(t, Unhandled{}, ev) }},
	}

	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			ev, err := ParseEvent(eventBody(tc.eventType, "42"))
			require.NoError(t, err)
			tc.check(t, ev)

			h := ev.Header()
			assert.Equal(t, "evt_1", h.ID)
			assert.Equal(t, tc.eventType, h.Type)
			assert.Equal(t, "cs_123", h.ObjectID)
			assert.Equal(t, time.Unix(1700000000, 0).UTC(), h.Created)

			id, ok := h.OrderID()
			assert.True(t, ok)
			assert.Equal(t, int64(42), id)
		})
	}
}

func TestParseEventMalformed(t *testing.T) {
	_, err := ParseEvent([]byte(`{"id":`))
	assert.True(t, errors.Is(err, ErrMalformedEvent))

	_, err = ParseEvent([]byte(`{"id":"evt_1"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestEnvelopeOrderID(t *testing.T) {
	cases := map[string]struct {
		meta map[string]string
		id   int64
		ok   bool
	}{
		"absent":      {meta: nil},
		"empty":       {meta: map[string]string{"orderId": " "}},
		"non integer": {meta: map[string]string{"orderId": "abc"}},
		"negative":    {meta: map[string]string{"orderId": "-3"}},
		"padded":      {meta: map[string]string{"orderId": " 7 "}, id: 7, ok: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			id, ok := Envelope{Metadata: tc.meta}.OrderID()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestParseEventNumericMetadata(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_2","type":"charge.failed","data":{"object":{"id":"ch_1","metadata":{"orderId":42}}}}`))
	require.NoError(t, err)

	id, ok := ev.Header().OrderID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.True(t, ev.Header().Created.IsZero())
}
