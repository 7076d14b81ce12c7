package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindOwned(ctx context.Context, userID, lineID uuid.UUID) (*models.CartItem, error)
	UpsertSingle(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	SetQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (bool, error)
	StepQuantity(ctx context.Context, userID, lineID uuid.UUID, delta int) (bool, error)
	Delete(ctx context.Context, userID, lineID uuid.UUID) (bool, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ProductLoader confirms a product exists before it is added.
type ProductLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Notifier fans out cart badge updates. Delivery is best effort.
type Notifier interface {
	CartChanged(ctx context.Context, userID uuid.UUID, count int64)
}
