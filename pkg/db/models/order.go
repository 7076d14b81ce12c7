package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// Order is the immutable checkout snapshot. Only Status and FulfillmentApplied change after insert.
type Order struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx;uniqueIndex:orders_user_idempotency_key"`
	TotalAmount        decimal.Decimal          `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status             enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'Placed'"`
	Address            types.AddressSnapshot    `gorm:"column:address;type:jsonb;not null"`
	ItemsSummary       types.OrderItemSummaries `gorm:"column:items_summary;type:jsonb;not null"`
	FulfillmentApplied bool                     `gorm:"column:fulfillment_applied;not null;default:false"`
	IdempotencyKey     *string                  `gorm:"column:idempotency_key;uniqueIndex:orders_user_idempotency_key"`
	Items              []OrderItem              `gorm:"foreignKey:OrderID"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
