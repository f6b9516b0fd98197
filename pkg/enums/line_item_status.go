package enums

import "fmt"

// LineItemStatus tracks the fulfillment state of a single order line item.
// Transitions only move forward: pending -> confirmed -> shipped -> delivered.
// Cancellation is reachable from pending only.
type LineItemStatus string

const (
	LineItemStatusPending   LineItemStatus = "pending"
	LineItemStatusConfirmed LineItemStatus = "confirmed"
	LineItemStatusShipped   LineItemStatus = "shipped"
	LineItemStatusDelivered LineItemStatus = "delivered"
	LineItemStatusCancelled LineItemStatus = "cancelled"
)

var validLineItemStatuses = []LineItemStatus{
	LineItemStatusPending,
	LineItemStatusConfirmed,
	LineItemStatusShipped,
	LineItemStatusDelivered,
	LineItemStatusCancelled,
}

// String implements fmt.Stringer.
func (s LineItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LineItemStatus.
func (s LineItemStatus) IsValid() bool {
	for _, candidate := range validLineItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the forward transition from s to target is
// one of the allowed edges of the fulfillment state machine.
func (s LineItemStatus) CanTransitionTo(target LineItemStatus) bool {
	switch target {
	case LineItemStatusConfirmed:
		return s == LineItemStatusPending
	case LineItemStatusShipped:
		return s == LineItemStatusConfirmed
	case LineItemStatusDelivered:
		return s == LineItemStatusShipped
	case LineItemStatusCancelled:
		return s == LineItemStatusPending
	default:
		return false
	}
}

// ParseLineItemStatus converts raw input into a LineItemStatus.
func ParseLineItemStatus(value string) (LineItemStatus, error) {
	for _, candidate := range validLineItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item status %q", value)
}
