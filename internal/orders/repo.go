package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds an order repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its Items in one statement batch.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the owner's orders newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows := []models.Order{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListPage returns every order newest first using cursor pagination. params.Query matches the
// order id or the customer's name.
func (r *repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := db.WhereContainsAny(r.db.WithContext(ctx).Model(&models.Order{}), params.Query,
		"CAST(orders.id AS TEXT)",
		"COALESCE((SELECT p.name FROM profiles p WHERE p.id = orders.user_id), '')",
	)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	rows := []models.Order{}
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

// CancelIfPlaced cancels only an owned order that is still Placed.
func (r *repository) CancelIfPlaced(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, enums.OrderStatusPlaced).
		Updates(map[string]any{"status": enums.OrderStatusCancelled, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// UpdateStatusFrom moves the order to `to` only if it is still in `from`.
func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// ClaimFulfillment flips fulfillment_applied once. Only the first caller gets true.
func (r *repository) ClaimFulfillment(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND fulfillment_applied = ?", id, false).
		Updates(map[string]any{"fulfillment_applied": true, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// ListDeliveredSummaries returns the frozen summaries of the user's delivered orders.
func (r *repository) ListDeliveredSummaries(ctx context.Context, userID uuid.UUID) ([]types.OrderItemSummaries, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Select("id", "items_summary").
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusDelivered).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.OrderItemSummaries, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ItemsSummary)
	}
	return out, nil
}

func (r *repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
