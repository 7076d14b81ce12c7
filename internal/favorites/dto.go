package favorites

import (
	"time"

	"github.com/google/uuid"

	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// FavoriteDTO is one saved product.
type FavoriteDTO struct {
	ID        uuid.UUID          `json:"id"`
	ProductID uuid.UUID          `json:"product_id"`
	Product   product.ProductDTO `json:"product"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	IsFavorite bool      `json:"is_favorite"`
}

// NewFavoriteDTOs maps rows whose product still exists.
func NewFavoriteDTOs(rows []models.Favorite, resolve func(string) string) []FavoriteDTO {
	out := make([]FavoriteDTO, 0, len(rows))
	for _, row := range rows {
		if row.Product == nil {
			continue
		}
		out = append(out, FavoriteDTO{
			ID:        row.ID,
			ProductID: row.ProductID,
			Product:   product.NewProductDTO(*row.Product, resolve),
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}
