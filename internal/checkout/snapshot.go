package checkout

import (
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// buildSnapshot freezes each cart line into the order summary and the per-line audit records.
func buildSnapshot(lines []models.CartItem) (types.OrderItemSummaries, []models.OrderItem) {
	summaries := make(types.OrderItemSummaries, 0, len(lines))
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		unit := line.Product.UnitPrice()
		summaries = append(summaries, types.OrderItemSummary{
			ProductID: line.ProductID,
			Name:      line.Product.Name,
			Price:     unit,
			Quantity:  line.Quantity,
			Image:     line.Product.Images.First(),
		})
		items = append(items, models.OrderItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: unit,
		})
	}
	return summaries, items
}
