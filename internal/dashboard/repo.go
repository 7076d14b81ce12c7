package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
)

// OrderTotal is the slice of an order the dashboard reduces over.
type OrderTotal struct {
	TotalAmount decimal.Decimal
	Status      enums.OrderStatus
}

// OrderReader loads (total_amount, status) for every order.
type OrderReader struct {
	db *gorm.DB
}

func NewOrderReader(db *gorm.DB) *OrderReader {
	return &OrderReader{db: db}
}

func (r *OrderReader) OrderTotals(ctx context.Context) ([]OrderTotal, error) {
	rows := []OrderTotal{}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("total_amount", "status").
		Scan(&rows).Error
	return rows, err
}
