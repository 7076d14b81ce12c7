package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// OrderDTO is the order history / detail payload.
type OrderDTO struct {
	ID          uuid.UUID                `json:"id"`
	UserID      uuid.UUID                `json:"user_id"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
	Status      enums.OrderStatus        `json:"status"`
	Address     types.AddressSnapshot    `json:"address"`
	Items       types.OrderItemSummaries `json:"items"`
	CanCancel   bool                     `json:"can_cancel"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Customer is the owner contact shown in the admin order table.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// AdminOrderDTO adds the owner's contact details.
type AdminOrderDTO struct {
	OrderDTO
	Customer *Customer `json:"customer"`
}

// AdminOrderPage is a cursor page of admin orders.
type AdminOrderPage struct {
	Items      []AdminOrderDTO `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps an order row. resolve turns summary image paths into URLs.
func NewOrderDTO(order models.Order, resolve func(string) string) OrderDTO {
	items := make(types.OrderItemSummaries, 0, len(order.ItemsSummary))
	for _, item := range order.ItemsSummary {
		if resolve != nil {
			item.Image = resolve(item.Image)
		}
		items = append(items, item)
	}
	return OrderDTO{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Address:     order.Address,
		Items:       items,
		CanCancel:   order.Status == enums.OrderStatusPlaced,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}
