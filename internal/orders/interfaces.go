package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// Repository defines persistence operations for orders and their line records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPage(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	CancelIfPlaced(ctx context.Context, userID, id uuid.UUID) (bool, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ClaimFulfillment(ctx context.Context, id uuid.UUID) (bool, error)
	ListDeliveredSummaries(ctx context.Context, userID uuid.UUID) ([]types.OrderItemSummaries, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// StockRepository applies the delivery-time stock decrement.
type StockRepository interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

// ProfileLookup resolves order owners for the admin listing.
type ProfileLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
}
