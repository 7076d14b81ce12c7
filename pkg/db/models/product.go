package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/types"
)

// Product is a catalog listing.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Description    string              `gorm:"column:description;not null;default:''"`
	Price          decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPrice  decimal.NullDecimal `gorm:"column:discount_price;type:numeric(12,2)"`
	Category       string              `gorm:"column:category;not null;index:products_category_idx"`
	Specs          types.ProductSpecs  `gorm:"column:specs;type:jsonb;not null"`
	Images         types.StringList    `gorm:"column:images;type:jsonb;not null"`
	Rating         decimal.Decimal     `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	StockQuantity  int                 `gorm:"column:stock_quantity;not null;default:0"`
	DeliveryCharge decimal.Decimal     `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	DeliveryDays   int                 `gorm:"column:delivery_days;not null;default:3"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// UnitPrice returns the discount price when one is set and positive, else the base price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}
