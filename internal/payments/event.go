package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Provider event types the reconciler acts on
const (
	TypeCheckoutCompleted  = "checkout.session.completed"
	TypeAsyncPaymentFailed = "checkout.session.async_payment_failed"
	TypeSessionExpired     = "checkout.session.expired"
	TypeChargeFailed       = "charge.failed"
)

// MetadataOrderID is the metadata key linking a provider object to an order
const MetadataOrderID = "orderId"

// Event is a verified provider notification. The concrete type is one of
// CheckoutCompleted, AsyncPaymentFailed, SessionExpired, ChargeFailed or
// Unhandled.
type Event interface {
	Header() Envelope
	isEvent()
}

// Envelope holds the fields shared by every provider event
type Envelope struct {
	ID       string
	Type     string
	Created  time.Time
	ObjectID string
	Metadata map[string]string
}

// Header returns the shared event fields
func (e Envelope) Header() Envelope {
	return e
}

// OrderID returns the order referenced by metadata.orderId. A missing or
// non-integer value reports false.
func (e Envelope) OrderID() (int64, bool) {
	raw := strings.TrimSpace(e.Metadata[MetadataOrderID])
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type CheckoutCompleted struct{ Envelope }
type AsyncPaymentFailed struct{ Envelope }
type SessionExpired struct{ Envelope }
type ChargeFailed struct{ Envelope }

// Unhandled carries any event type the service does not act on
type Unhandled struct{ Envelope }

func (CheckoutCompleted) isEvent()  {}
func (AsyncPaymentFailed) isEvent() {}
func (SessionExpired) isEvent()     {}
func (ChargeFailed) isEvent()       {}
func (Unhandled) isEvent()          {}

type rawEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID       string                 `json:"id"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified delivery body. Call it only after
// VerifySignature succeeded on the same bytes.
func ParseEvent(body []byte) (Event, error) {
	var raw rawEvent
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("%w: event type is missing", ErrMalformedEvent)
	}

	env := Envelope{
		ID:       raw.ID,
		Type:     raw.Type,
		ObjectID: raw.Data.Object.ID,
		Metadata: stringifyMetadata(raw.Data.Object.Metadata),
	}
	if raw.Created > 0 {
		env.Created = time.Unix(raw.Created, 0).UTC()
	}

	switch raw.Type {
	case TypeCheckoutCompleted:
		return CheckoutCompleted{env}, nil
	case TypeAsyncPaymentFailed:
		return AsyncPaymentFailed{env}, nil
	case TypeSessionExpired:
		return SessionExpired{env}, nil
	case TypeChargeFailed:
		return ChargeFailed{env}, nil
	default:
		return Unhandled{env}, nil
	}
}

func stringifyMetadata(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
