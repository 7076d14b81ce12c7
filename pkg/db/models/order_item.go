package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is the auditable per-line record written alongside an order.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(12,2);not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
