package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// ProductDTO is the storefront view of a product with image paths resolved to URLs.
type ProductDTO struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Price          decimal.Decimal    `json:"price"`
	DiscountPrice  *decimal.Decimal   `json:"discount_price"`
	EffectivePrice decimal.Decimal    `json:"effective_price"`
	Category       string             `json:"category"`
	Specs          types.ProductSpecs `json:"specs"`
	Images         []string           `json:"images"`
	Rating         decimal.Decimal    `json:"rating"`
	StockQuantity  int                `json:"stock_quantity"`
	InStock        bool               `json:"in_stock"`
	DeliveryCharge decimal.Decimal    `json:"delivery_charge"`
	DeliveryDays   int                `json:"delivery_days"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ProductPage is a cursor page of products.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// UpsertInput is the admin create/update payload.
type UpsertInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	DiscountPrice  *decimal.Decimal
	Category       string
	Specs          types.ProductSpecs
	Images         []string
	Rating         decimal.Decimal
	StockQuantity  int
	DeliveryCharge decimal.Decimal
	DeliveryDays   int
}

// UploadResult names the stored object and where it is served from.
type UploadResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// NewProductDTO maps a row into its response shape. resolve turns stored paths into public URLs.
func NewProductDTO(p models.Product, resolve func(string) string) ProductDTO {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if resolve != nil {
			img = resolve(img)
		}
		images = append(images, img)
	}

	var discount *decimal.Decimal
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() {
		d := p.DiscountPrice.Decimal
		discount = &d
	}

	specs := p.Specs
	if specs == nil {
		specs = types.ProductSpecs{}
	}

	return ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  discount,
		EffectivePrice: p.UnitPrice(),
		Category:       p.Category,
		Specs:          specs,
		Images:         images,
		Rating:         p.Rating,
		StockQuantity:  p.StockQuantity,
		InStock:        p.StockQuantity > 0,
		DeliveryCharge: p.DeliveryCharge,
		DeliveryDays:   p.DeliveryDays,
		CreatedAt:      p.CreatedAt,
	}
}
