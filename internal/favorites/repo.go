package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// Repository encapsulates favorite persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Add inserts a favorite and ignores duplicates.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	row := models.Favorite{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

// Remove deletes the user-product favorite and reports whether a row existed.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// Exists reports whether the product is saved by the user.
func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// ListWithProducts returns the user's favorites newest first with their products preloaded.
func (r *Repository) ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	rows := []models.Favorite{}
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}
