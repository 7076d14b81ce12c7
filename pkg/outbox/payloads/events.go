package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Abhijit5011/Electromart/pkg/enums"
)

// OrderPlacedEvent is emitted once checkout commits an order.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted by admin status updates.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted when a shopper cancels a Placed order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// StockLine is one product decrement applied at delivery.
type StockLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// StockDecrementedEvent records the one-time stock adjustment of a delivered order.
type StockDecrementedEvent struct {
	OrderID uuid.UUID   `json:"order_id"`
	Lines   []StockLine `json:"lines"`
}

// ProfileBanToggledEvent is emitted when an admin bans or unbans a profile.
type ProfileBanToggledEvent struct {
	ProfileID uuid.UUID `json:"profile_id"`
	IsBanned  bool      `json:"is_banned"`
}
