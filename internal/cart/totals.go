package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// Totals is the priced summary of a cart.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Delivery  decimal.Decimal `json:"delivery"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// ComputeTotals prices lines at their discount price when set, else base price.
// Delivery adds each line's charge once regardless of quantity. Lines without a product are skipped.
func ComputeTotals(lines []models.CartItem) Totals {
	totals := Totals{Subtotal: decimal.Zero, Delivery: decimal.Zero}
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		totals.Subtotal = totals.Subtotal.Add(line.Product.UnitPrice().Mul(qty))
		totals.Delivery = totals.Delivery.Add(line.Product.DeliveryCharge)
		totals.ItemCount += line.Quantity
	}
	totals.Total = totals.Subtotal.Add(totals.Delivery)
	return totals
}
