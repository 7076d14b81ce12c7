package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProfile OutboxAggregateType = "profile"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProfile,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderPlaced        OutboxEventType = "order_placed"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderCancelled     OutboxEventType = "order_cancelled"
	EventStockDecremented   OutboxEventType = "stock_decremented"
	EventProfileBanToggled  OutboxEventType = "profile_ban_toggled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventStockDecremented,
	EventProfileBanToggled,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
