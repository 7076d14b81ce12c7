package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// LineDTO is one priced cart line.
type LineDTO struct {
	ID             uuid.UUID          `json:"id"`
	ProductID      uuid.UUID          `json:"product_id"`
	Quantity       int                `json:"quantity"`
	UnitPrice      decimal.Decimal    `json:"unit_price"`
	LineTotal      decimal.Decimal    `json:"line_total"`
	DeliveryCharge decimal.Decimal    `json:"delivery_charge"`
	Product        product.ProductDTO `json:"product"`
}

// CartDTO is the cart page payload.
type CartDTO struct {
	Items  []LineDTO `json:"items"`
	Totals Totals    `json:"totals"`
}

func newLineDTO(line models.CartItem, resolve func(string) string) LineDTO {
	dto := LineDTO{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	}
	if line.Product != nil {
		unit := line.Product.UnitPrice()
		dto.UnitPrice = unit
		dto.LineTotal = unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		dto.DeliveryCharge = line.Product.DeliveryCharge
		dto.Product = product.NewProductDTO(*line.Product, resolve)
	}
	return dto
}

// NewLineDTOs maps loaded cart rows for read-only views such as the admin user details.
func NewLineDTOs(lines []models.CartItem, resolve func(string) string) []LineDTO {
	out := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, newLineDTO(line, resolve))
	}
	return out
}
