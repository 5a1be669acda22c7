package models

import "time"

// Event types published on the order topic
const (
	EventTypeOrderPaid      = "ORDER_PAID"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent published after a payment event moved an order to a
// terminal status
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID       int64       `json:"order_id"`
	Status        OrderStatus `json:"status"`
	SourceEventID string      `json:"source_event_id"`
	SourceType    string      `json:"source_type"`
}

// EventTypeForStatus maps a terminal status to the event type announcing it
func EventTypeForStatus(status OrderStatus) string {
	if status == OrderStatusPaid {
		return EventTypeOrderPaid
	}
	return EventTypeOrderCancelled
}
