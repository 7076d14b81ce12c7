package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "Placed"
	OrderStatusAccepted  OrderStatus = "Accepted"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusAccepted,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions lists the allowed target states per source state.
// Forward moves may skip steps; Cancelled is reachable from any non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:    {OrderStatusAccepted, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsPending reports whether the order is still moving toward delivery.
func (s OrderStatus) IsPending() bool {
	return s == OrderStatusPlaced || s == OrderStatusAccepted || s == OrderStatusShipped
}

// CanTransitionTo consults the transition table.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the targets reachable from s.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	out := make([]OrderStatus, len(orderTransitions[s]))
	copy(out, orderTransitions[s])
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
