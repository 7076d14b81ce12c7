package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

// ProductReviewRow is a review joined with its author's name.
type ProductReviewRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ProductID    uuid.UUID
	Rating       int
	Comment      string
	CreatedAt    time.Time
	ReviewerName string
}

// AdminReviewRow adds product and reviewer contact columns for moderation.
type AdminReviewRow struct {
	ProductReviewRow
	ProductName   string
	ProductImages types.StringList
	ReviewerPhone string
}

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct returns the product's reviews newest first with reviewer names.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]ProductReviewRow, error) {
	rows := []ProductReviewRow{}
	err := r.db.WithContext(ctx).
		Table("reviews AS r").
		Select("r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, COALESCE(p.name, '') AS reviewer_name").
		Joins("LEFT JOIN profiles p ON p.id = r.user_id").
		Where("r.product_id = ?", productID).
		Order("r.created_at DESC").
		Order("r.id DESC").
		Scan(&rows).Error
	return rows, err
}

// ListPage returns every review newest first for moderation.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]AdminReviewRow, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := r.db.WithContext(ctx).
		Table("reviews AS r").
		Select(`r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at,
			COALESCE(p.name, '') AS reviewer_name, COALESCE(p.phone, '') AS reviewer_phone,
			COALESCE(pr.name, '') AS product_name, COALESCE(pr.images, '[]') AS product_images`).
		Joins("LEFT JOIN profiles p ON p.id = r.user_id").
		Joins("LEFT JOIN products pr ON pr.id = r.product_id")
	query = db.WhereContainsAny(query, params.Query, "r.comment", "pr.name", "p.name")
	if cursor != nil {
		query = query.Where("(r.created_at < ?) OR (r.created_at = ? AND r.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	rows := []AdminReviewRow{}
	if err := query.Order("r.created_at DESC").Order("r.id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Scan(&rows).Error; err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= limit {
		return rows, "", nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}), nil
}

// Delete removes a review and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	return res.RowsAffected > 0, res.Error
}

// Ratings returns every stored rating.
func (r *Repository) Ratings(ctx context.Context) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).Model(&models.Review{}).Pluck("rating", &ratings).Error
	return ratings, err
}
