package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

const (
	// FeaturedLimit is how many newest products the home page shows.
	FeaturedLimit = 8
	// RelatedLimit caps same-category suggestions on the detail page.
	RelatedLimit = 5
	// CategoryAll disables the category filter.
	CategoryAll = "All"
)

// ListFilter narrows the catalog query.
type ListFilter struct {
	Category string
	Query    string
	Sort     enums.ProductSort
	Limit    int
	// Offset skips rows already returned on earlier pages.
	Offset int
}

// Repository persists catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a product repository to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List applies the category filter, the case-insensitive search and the sort. The returned cursor
// is empty on the last page.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if category := strings.TrimSpace(filter.Category); category != "" && !strings.EqualFold(category, CategoryAll) {
		query = query.Where("category = ?", category)
	}
	query = db.WhereContainsAny(query, filter.Query, "name", "category", "description")

	switch filter.Sort {
	case enums.ProductSortPriceAsc:
		query = query.Order("price ASC").Order("created_at DESC")
	case enums.ProductSortPriceDesc:
		query = query.Order("price DESC").Order("created_at DESC")
	case enums.ProductSortRating:
		query = query.Order("rating DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []models.Product
	if err := query.Order("id DESC").Offset(offset).Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	if len(rows) <= limit {
		return rows, "", nil
	}
	return rows[:limit], pagination.EncodeOffset(offset + limit), nil
}

// Featured returns the newest products.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Related returns other products from the same category.
func (r *Repository) Related(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("category = ? AND id <> ?", category, excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindByID loads one product. Missing rows return gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListPage returns products newest first for the admin table, optionally narrowed by name.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := db.WhereContainsAny(r.db.WithContext(ctx).Model(&models.Product{}), params.Query, "name")
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
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

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update overwrites every editable column. It reports false when the row does not exist.
func (r *Repository) Update(ctx context.Context, product *models.Product) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{ID: product.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(product)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the product. It reports false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementStock lowers stock by qty in one statement, flooring at zero.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", qty, qty)).
		Error
}

// ImagePaths returns every image value referenced by a product, deduplicated.
func (r *Repository) ImagePaths(ctx context.Context) (map[string]struct{}, error) {
	var lists []types.StringList
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Pluck("images", &lists).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for _, list := range lists {
		for _, img := range list {
			out[img] = struct{}{}
		}
	}
	return out, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}
