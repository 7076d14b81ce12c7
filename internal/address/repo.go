package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// Repository persists saved addresses.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the default address first, then newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows := []models.Address{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindOwned loads an address only if userID owns it.
func (r *Repository) FindOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// DeleteOwned removes the address and reports whether a row matched.
func (r *Repository) DeleteOwned(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&models.Address{})
	return res.RowsAffected > 0, res.Error
}
