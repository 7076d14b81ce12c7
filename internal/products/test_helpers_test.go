package product

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

var seedClock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, conn *gorm.DB, name, category, price string, stock int, mutate ...func(*models.Product)) models.Product {
	t.Helper()
	seedClock = seedClock.Add(time.Minute)
	p := models.Product{
		Name:           name,
		Description:    name + " for everyday use",
		Price:          decimal.RequireFromString(price),
		Category:       category,
		Images:         types.StringList{name + ".png"},
		StockQuantity:  stock,
		DeliveryCharge: decimal.NewFromInt(50),
		DeliveryDays:   3,
		CreatedAt:      seedClock,
	}
	for _, fn := range mutate {
		fn(&p)
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func names(rows []models.Product) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out
}
