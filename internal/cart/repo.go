package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListWithProducts returns the user's lines oldest first with their products preloaded.
func (r *Repository) ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	rows := []models.CartItem{}
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindOwned(ctx context.Context, userID, lineID uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND user_id = ?", lineID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertSingle inserts the line with quantity 1, or resets an existing line to 1.
func (r *Repository) UpsertSingle(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	line := &models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   1,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(line).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *Repository) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// StepQuantity adds delta in one statement and never lets the line drop below 1.
func (r *Repository) StepQuantity(ctx context.Context, userID, lineID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("CASE WHEN quantity + ? < 1 THEN 1 ELSE quantity + ? END", delta, delta),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, userID, lineID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (r *Repository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
